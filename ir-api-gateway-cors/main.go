package main

import (
	"net/http"
	"os"

	"irtracker/lib/auth"
	"irtracker/lib/bootstrap"
	"irtracker/lib/clients"
	"irtracker/lib/constants"
	"irtracker/lib/data"
	"irtracker/lib/util"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

const (
	allowHeaders = "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token,X-Session-Id"
	allowMethods = "GET, PUT, DELETE, POST, OPTIONS"
)

var (
	logger         *logrus.Logger
	allowedOrigins []string
)

func handler(request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	requestOrigin, ok := auth.Origin(request)
	if !ok {
		logger.WithField("operation", "handler").Warn("Origin is not present in the request headers")
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest}, nil
	}

	for _, allowedOrigin := range allowedOrigins {
		if allowedOrigin == "*" || allowedOrigin == requestOrigin {
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusOK,
				Headers: map[string]string{
					"Access-Control-Allow-Origin":      requestOrigin,
					"Access-Control-Allow-Headers":     allowHeaders,
					"Access-Control-Allow-Methods":     allowMethods,
					"Access-Control-Allow-Credentials": "true",
				},
			}, nil
		}
	}

	logger.WithFields(logrus.Fields{
		"operation": "handler",
		"origin":    requestOrigin,
	}).Warn("Unauthorized origin")
	return events.APIGatewayProxyResponse{StatusCode: http.StatusForbidden}, nil
}

func main() {
	isLocal := bootstrap.ParseIsLocal()
	logger = util.NewLogger(isLocal, os.Getenv(constants.ENV_LOG_LEVEL))

	ssmRepository := &data.SSMDao{
		SSM:    clients.NewSSMClient(isLocal),
		Logger: logger,
	}
	params, err := ssmRepository.GetParameters()
	if err != nil {
		logger.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Fatal("Error while getting ssm params from param store")
	}
	allowedOrigins = util.SplitList(params[constants.ALLOWED_ORIGINS])

	lambda.Start(handler)
}
