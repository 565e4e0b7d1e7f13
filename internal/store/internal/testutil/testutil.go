package testutil

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/prepstack/certstudy/internal/utils/logging"
)

// FakeDynamoClient records the last input per operation and returns the
// configured outputs/errors. Errs is consumed front-to-first so tests can
// script a transient failure followed by success.
type FakeDynamoClient struct {
	PutIn      *dynamodb.PutItemInput
	GetIn      *dynamodb.GetItemInput
	QueryIn    *dynamodb.QueryInput
	UpdateIn   *dynamodb.UpdateItemInput
	DeleteIn   *dynamodb.DeleteItemInput
	TransactIn *dynamodb.TransactWriteItemsInput

	GetOut    *dynamodb.GetItemOutput
	QueryOut  *dynamodb.QueryOutput
	UpdateOut *dynamodb.UpdateItemOutput

	Errs  []error
	Calls int
}

func (f *FakeDynamoClient) nextErr() error {
	f.Calls++
	if len(f.Errs) == 0 {
		return nil
	}
	err := f.Errs[0]
	f.Errs = f.Errs[1:]
	return err
}

// PutItem records the input and returns the next scripted error.
func (f *FakeDynamoClient) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.PutIn = in
	return &dynamodb.PutItemOutput{}, f.nextErr()
}

// GetItem records the input and returns the configured output.
func (f *FakeDynamoClient) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.GetIn = in
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	if f.GetOut != nil {
		return f.GetOut, nil
	}
	return &dynamodb.GetItemOutput{}, nil
}

// Query records the input and returns the configured output.
func (f *FakeDynamoClient) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.QueryIn = in
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	if f.QueryOut != nil {
		return f.QueryOut, nil
	}
	return &dynamodb.QueryOutput{}, nil
}

// UpdateItem records the input and returns the configured output.
func (f *FakeDynamoClient) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.UpdateIn = in
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	if f.UpdateOut != nil {
		return f.UpdateOut, nil
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

// DeleteItem records the input and returns the next scripted error.
func (f *FakeDynamoClient) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.DeleteIn = in
	return &dynamodb.DeleteItemOutput{}, f.nextErr()
}

// TransactWriteItems records the input and returns the next scripted error.
func (f *FakeDynamoClient) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.TransactIn = in
	return &dynamodb.TransactWriteItemsOutput{}, f.nextErr()
}

// BufferLogger is a buffer-backed logger that records calls for assertions.
type BufferLogger struct {
	Calls   []string
	Entries []string
}

// Debug records a debug-level log entry.
func (l *BufferLogger) Debug(msg string, ctx logging.Fields) { l.record("debug", msg, ctx) }

// Info records an info-level log entry.
func (l *BufferLogger) Info(msg string, ctx logging.Fields) { l.record("info", msg, ctx) }

// Warn records a warn-level log entry.
func (l *BufferLogger) Warn(msg string, ctx logging.Fields) { l.record("warn", msg, ctx) }

// Error records an error-level log entry.
func (l *BufferLogger) Error(msg string, ctx logging.Fields) { l.record("error", msg, ctx) }

func (l *BufferLogger) record(level, msg string, ctx logging.Fields) {
	l.Calls = append(l.Calls, level)
	// simple human-readable capture for assertions; not a JSON serializer
	l.Entries = append(l.Entries, fmt.Sprintf("%s: %s ctx=%v", level, msg, ctx))
}

var _ logging.Logger = (*BufferLogger)(nil)

// Contains reports whether s contains sub; exported for reuse across tests.
func Contains(s, sub string) bool { return strings.Contains(s, sub) }
