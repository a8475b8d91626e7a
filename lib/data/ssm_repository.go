package data

import (
	"context"
	"strings"
	"time"

	"irtracker/lib/constants"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/sirupsen/logrus"
)

type SSMRepository interface {
	GetParameters() (map[string]string, error)
}

type SSMClientInterface interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// SSMDao reads every parameter under Path (default /irtracker)
type SSMDao struct {
	SSM    SSMClientInterface
	Logger *logrus.Logger
	Path   string
}

func (client *SSMDao) GetParameters() (map[string]string, error) {
	params := map[string]string{}
	path := client.Path
	if path == "" {
		path = constants.PARAMETER_PATH
	}

	input := &ssm.GetParametersByPathInput{
		Path:           aws.String(path),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	}

	for {
		output, err := client.SSM.GetParametersByPath(context.TODO(), input)
		if err != nil {
			return nil, err
		}

		for _, param := range output.Parameters {
			params[aws.ToString(param.Name)] = aws.ToString(param.Value)
		}

		if output.NextToken == nil {
			break
		}
		input.NextToken = output.NextToken
	}

	if client.Logger != nil && client.Logger.IsLevelEnabled(logrus.DebugLevel) {
		client.Logger.WithFields(logrus.Fields{
			"operation": "GetParameters",
			"path":      path,
			"count":     len(params),
		}).Debug("Loaded SSM parameters")
	}
	return params, nil
}

// DurationParam parses a duration parameter such as "10m", falling back when absent or invalid
func DurationParam(params map[string]string, key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(params[key])
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
