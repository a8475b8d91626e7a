package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var validate = validator.New()

func headers(contentType string) map[string]string {
	return map[string]string{
		"Content-Type":                 contentType,
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token",
		"Access-Control-Allow-Methods": "GET,POST,PUT,DELETE,OPTIONS",
	}
}

// SuccessResponse creates a successful API Gateway response
func SuccessResponse(statusCode int, data interface{}, logger *logrus.Logger) events.APIGatewayProxyResponse {
	body, err := json.Marshal(data)
	if err != nil {
		logger.WithError(err).Error("Failed to marshal response data")
		return ErrorResponse(http.StatusInternalServerError, "Internal server error", logger)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Body:       string(body),
		Headers:    headers("application/json"),
	}
}

// ErrorResponse creates an error API Gateway response
func ErrorResponse(statusCode int, message string, logger *logrus.Logger) events.APIGatewayProxyResponse {
	errorData := map[string]interface{}{
		"error":   true,
		"message": message,
		"status":  statusCode,
	}

	body, err := json.Marshal(errorData)
	if err != nil {
		logger.WithError(err).Error("Failed to marshal error response")
		body = []byte(`{"error":true,"message":"Internal server error","status":500}`)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Body:       string(body),
		Headers:    headers("application/json"),
	}
}

// RedirectResponse is a 401/403 error that tells the client where to go
func RedirectResponse(statusCode int, message, location string, logger *logrus.Logger) events.APIGatewayProxyResponse {
	body, err := json.Marshal(map[string]interface{}{
		"error":    true,
		"message":  message,
		"status":   statusCode,
		"redirect": location,
	})
	if err != nil {
		return ErrorResponse(statusCode, message, logger)
	}

	h := headers("application/json")
	h["Location"] = location
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Body:       string(body),
		Headers:    h,
	}
}

// ValidationErrorResponse creates a validation error response
func ValidationErrorResponse(message string, errors []string, logger *logrus.Logger) events.APIGatewayProxyResponse {
	errorData := map[string]interface{}{
		"error":      true,
		"message":    message,
		"status":     http.StatusBadRequest,
		"validation": errors,
	}

	body, err := json.Marshal(errorData)
	if err != nil {
		logger.WithError(err).Error("Failed to marshal validation error response")
		return ErrorResponse(http.StatusInternalServerError, "Internal server error", logger)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusBadRequest,
		Body:       string(body),
		Headers:    headers("application/json"),
	}
}

// TextResponse returns a plain body such as a TSV export
func TextResponse(statusCode int, contentType, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Body:       body,
		Headers:    headers(contentType),
	}
}

// FileResponse returns a base64 encoded attachment
func FileResponse(contentType, fileName string, content []byte) events.APIGatewayProxyResponse {
	h := headers(contentType)
	h["Content-Disposition"] = fmt.Sprintf("attachment; filename=%q", fileName)
	return events.APIGatewayProxyResponse{
		StatusCode:      http.StatusOK,
		Body:            base64.StdEncoding.EncodeToString(content),
		Headers:         h,
		IsBase64Encoded: true,
	}
}

// ParseJSONBody decodes a request body, rejecting empty bodies and unknown fields
func ParseJSONBody(body string, target interface{}) error {
	if strings.TrimSpace(body) == "" {
		return errors.New("request body is empty")
	}

	decoder := json.NewDecoder(strings.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// Validate runs struct validation and flattens failures to "field: tag" messages
func Validate(target interface{}) []string {
	err := validate.Struct(target)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		if fe.Param() != "" {
			messages = append(messages, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			messages = append(messages, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return messages
}

// PathParameter returns a trimmed path parameter
func PathParameter(request events.APIGatewayProxyRequest, name string) (string, bool) {
	value := strings.TrimSpace(request.PathParameters[name])
	return value, value != ""
}
