package main

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/shutterspot/backend/internal/app"
)

// The same binary serves API Gateway requests and the EventBridge schedule
// that drives auto-sync, so dispatch happens on the raw payload shape.
func main() {
	application := app.NewApp(context.Background())

	lambda.Start(func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var scheduled events.CloudWatchEvent
		if err := json.Unmarshal(raw, &scheduled); err == nil && scheduled.Source == "aws.events" {
			attempted, err := application.HandleScheduledEvent(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]int{"attempted": attempted}, nil
		}

		var req events.APIGatewayProxyRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		return application.HandleRequest(ctx, req)
	})
}
