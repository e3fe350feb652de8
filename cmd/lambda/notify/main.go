// Lambda entry point: one pipeline run per invocation, triggered by an
// EventBridge schedule. Configuration comes from the same environment
// variables as cmd/toranews.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/deusflow/toranews/internal/app"
	"github.com/deusflow/toranews/internal/config"
	"github.com/deusflow/toranews/internal/logger"
)

// Response is the Lambda result.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	RunID      string `json:"runId,omitempty"`
	Matched    int    `json:"matched"`
	Sent       int    `json:"sent"`
	Messages   int    `json:"messages"`
}

// Handler runs the pipeline once.
func Handler(ctx context.Context, _ interface{}) (Response, error) {
	cfg, err := config.Load()
	if err != nil {
		return Response{StatusCode: 400, Message: err.Error()}, err
	}

	log := logger.Init(logger.Options{Debug: cfg.Debug})

	pipeline, closeRegistry, err := app.FromConfig(ctx, cfg, log)
	if err != nil {
		return Response{StatusCode: 500, Message: err.Error()}, err
	}
	defer closeRegistry()

	report, err := pipeline.Run(ctx)
	resp := Response{
		StatusCode: 200,
		Message:    "ok",
		RunID:      report.RunID,
		Matched:    report.Matched,
		Sent:       report.Sent,
		Messages:   report.Messages,
	}
	if err != nil {
		resp.StatusCode = 500
		resp.Message = err.Error()
		return resp, err
	}
	return resp, nil
}

func main() {
	lambda.Start(Handler)
}
