// Command certstudy is the API entry point: an API Gateway proxy Lambda that
// authenticates the caller and dispatches to the typed service surface. All
// heavy lifting lives in the internal packages; this file only frames
// requests and responses.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/prepstack/certstudy/internal/api"
	"github.com/prepstack/certstudy/internal/auth"
	"github.com/prepstack/certstudy/internal/awssdk"
	"github.com/prepstack/certstudy/internal/config"
	"github.com/prepstack/certstudy/internal/goal"
	"github.com/prepstack/certstudy/internal/questions"
	"github.com/prepstack/certstudy/internal/session"
	"github.com/prepstack/certstudy/internal/store"
	"github.com/prepstack/certstudy/internal/user"
	"github.com/prepstack/certstudy/internal/utils/logging"
)

var corsHeaders = map[string]string{
	"Content-Type":                 "application/json",
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Authorization,Content-Type",
	"Access-Control-Allow-Methods": "GET,POST,PUT,DELETE,OPTIONS",
}

type handler struct {
	svc *api.Service
	log logging.Logger
}

func main() {
	ctx := context.Background()
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	zl, err := logging.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	awsCfg, err := awssdk.LoadDefault(ctx, cfg.Region)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	st := store.NewDynamoStore(awssdk.NewDynamoDB(awsCfg), store.DynamoConfig{
		TableName:     cfg.TableName,
		OpTimeout:     cfg.OpTimeout(),
		RetryAttempts: cfg.RetryAttempts,
	}, zl)
	secrets := auth.NewRemoteSecretSource(awssdk.NewSecretsManager(awsCfg), cfg.AuthSecretID)
	verifier := auth.NewTokenVerifier(secrets)

	// The question bank is resolved outside this service; scoring falls back
	// to an empty pool when no bank adapter is attached.
	pool := questions.NewStaticPool()

	users := user.NewRegistry(st, user.WithLogger(zl))
	sessions := session.NewManager(st, pool, session.WithLogger(zl))
	goals := goal.NewEngine(st, sessions, goal.WithLogger(zl))

	h := &handler{svc: api.New(verifier, users, sessions, goals, zl), log: zl}
	lambda.Start(h.handle)
}

func (h *handler) handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod == http.MethodOptions {
		return respond(http.StatusNoContent, nil), nil
	}
	out, err := h.route(ctx, req)
	if err != nil {
		status, body := api.MapError(err)
		if status == http.StatusInternalServerError {
			h.log.Error("request.failed", logging.Fields{"path": req.Path, "error": err.Error()})
		}
		return respond(status, body), nil
	}
	status := http.StatusOK
	if req.HTTPMethod == http.MethodPost {
		status = http.StatusCreated
	}
	if out == nil {
		return respond(http.StatusNoContent, nil), nil
	}
	return respond(status, out), nil
}

// route maps method+path onto the service surface. Paths are
// /register, /profile, /sessions[/{id}[/answers|complete|pause|resume|stats]],
// /goals[/{id}[/progress]].
func (h *handler) route(ctx context.Context, req events.APIGatewayProxyRequest) (any, error) {
	parts := splitPath(req.Path)
	if len(parts) == 0 {
		return nil, &store.NotFoundError{}
	}

	if req.HTTPMethod == http.MethodPost && parts[0] == "register" && len(parts) == 1 {
		var body api.RegisterRequest
		if err := decodeBody(req.Body, &body); err != nil {
			return nil, err
		}
		return h.svc.Register(ctx, body)
	}

	id, err := h.svc.Authenticate(ctx, req.Headers["Authorization"])
	if err != nil {
		return nil, err
	}

	switch parts[0] {
	case "profile":
		if req.HTTPMethod == http.MethodGet && len(parts) == 1 {
			return h.svc.Profile(ctx, id)
		}
	case "sessions":
		return h.routeSessions(ctx, req, id, parts)
	case "goals":
		return h.routeGoals(ctx, req, id, parts)
	}
	return nil, &store.NotFoundError{}
}

func (h *handler) routeSessions(ctx context.Context, req events.APIGatewayProxyRequest, id auth.Identity, parts []string) (any, error) {
	switch {
	case len(parts) == 1 && req.HTTPMethod == http.MethodPost:
		var body api.CreateSessionRequest
		if err := decodeBody(req.Body, &body); err != nil {
			return nil, err
		}
		return h.svc.CreateSession(ctx, id, body)
	case len(parts) == 1 && req.HTTPMethod == http.MethodGet:
		return h.svc.ListSessions(ctx, id, 0)
	case len(parts) == 2 && req.HTTPMethod == http.MethodGet:
		return h.svc.GetSession(ctx, id, parts[1])
	case len(parts) == 2 && req.HTTPMethod == http.MethodDelete:
		return nil, h.svc.DeleteSession(ctx, id, parts[1])
	case len(parts) == 3 && req.HTTPMethod == http.MethodPost && parts[2] == "answers":
		var body api.SubmitAnswerRequest
		if err := decodeBody(req.Body, &body); err != nil {
			return nil, err
		}
		return h.svc.SubmitAnswer(ctx, id, parts[1], body)
	case len(parts) == 3 && req.HTTPMethod == http.MethodPost && parts[2] == "complete":
		return h.svc.CompleteSession(ctx, id, parts[1])
	case len(parts) == 3 && req.HTTPMethod == http.MethodPost && parts[2] == "pause":
		return h.svc.PauseSession(ctx, id, parts[1])
	case len(parts) == 3 && req.HTTPMethod == http.MethodPost && parts[2] == "resume":
		return h.svc.ResumeSession(ctx, id, parts[1])
	case len(parts) == 3 && req.HTTPMethod == http.MethodGet && parts[2] == "stats":
		return h.svc.SessionStats(ctx, id, parts[1])
	}
	return nil, &store.NotFoundError{}
}

func (h *handler) routeGoals(ctx context.Context, req events.APIGatewayProxyRequest, id auth.Identity, parts []string) (any, error) {
	switch {
	case len(parts) == 1 && req.HTTPMethod == http.MethodPost:
		var body api.CreateGoalRequest
		if err := decodeBody(req.Body, &body); err != nil {
			return nil, err
		}
		return h.svc.CreateGoal(ctx, id, body)
	case len(parts) == 1 && req.HTTPMethod == http.MethodGet:
		return h.svc.ListGoals(ctx, id, 0)
	case len(parts) == 2 && req.HTTPMethod == http.MethodGet:
		return h.svc.GetGoal(ctx, id, parts[1])
	case len(parts) == 2 && req.HTTPMethod == http.MethodPut:
		var body api.UpdateGoalRequest
		if err := decodeBody(req.Body, &body); err != nil {
			return nil, err
		}
		return h.svc.UpdateGoal(ctx, id, parts[1], body)
	case len(parts) == 2 && req.HTTPMethod == http.MethodDelete:
		return nil, h.svc.DeleteGoal(ctx, id, parts[1])
	case len(parts) == 3 && req.HTTPMethod == http.MethodGet && parts[2] == "progress":
		return h.svc.GoalProgress(ctx, id, parts[1])
	}
	return nil, &store.NotFoundError{}
}

func splitPath(p string) []string {
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

func decodeBody(body string, v any) error {
	if strings.TrimSpace(body) == "" {
		return &api.ValidationError{Message: "Request body is required"}
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return &api.ValidationError{Message: "Request body is not valid JSON"}
	}
	return nil
}

func respond(status int, body any) events.APIGatewayProxyResponse {
	resp := events.APIGatewayProxyResponse{StatusCode: status, Headers: corsHeaders}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusInternalServerError,
				Headers:    corsHeaders,
				Body:       `{"message":"Internal server error"}`,
			}
		}
		resp.Body = string(raw)
	}
	return resp
}
