package client

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
)

// Interpret turns a raw response into its decoded JSON value or a typed error.
//
// Status 200 and 201 are successes. Any other status must carry a JSON error
// body with a "code" and a "message" or "description"; code 404 yields a
// *NotFoundError, every other code a *ServerError. Bodies that cannot be
// parsed always yield a *ParseError, whatever the status.
func Interpret(statusCode int, body []byte) (any, error) {
	if statusCode == http.StatusOK || statusCode == http.StatusCreated {
		return parseJSON(body)
	}

	errResp, err := parseErrorResponse(body)
	if err != nil {
		return nil, err
	}

	srvErr := ServerError{StatusCode: statusCode, Response: errResp}
	if errResp.Code == http.StatusNotFound {
		return nil, &NotFoundError{ServerError: srvErr}
	}
	return nil, &srvErr
}

func parseJSON(body []byte) (any, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, &ParseError{Reason: "response is not valid JSON", Body: string(body), Err: err}
	}
	return v, nil
}

// parseErrorResponse extracts the {code, message} payload of an error body.
// The human readable part is sent as either "message" or "description".
func parseErrorResponse(body []byte) (ErrorResponse, error) {
	v, err := parseJSON(body)
	if err != nil {
		return ErrorResponse{}, err
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return ErrorResponse{}, &ParseError{Reason: "error body is not a JSON object", Body: string(body)}
	}

	var message string
	if m, ok := obj["message"]; ok {
		message = stringify(m)
	} else if d, ok := obj["description"]; ok {
		message = stringify(d)
	} else {
		return ErrorResponse{}, &ParseError{Reason: "missing message/description", Body: string(body)}
	}

	rawCode, ok := obj["code"]
	if !ok {
		return ErrorResponse{}, &ParseError{Reason: "missing code", Body: string(body)}
	}
	code, err := toInt(rawCode)
	if err != nil {
		return ErrorResponse{}, &ParseError{Reason: "code is not an integer", Body: string(body), Err: err}
	}

	return ErrorResponse{Code: code, Message: message}, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func toInt(v any) (int, error) {
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("non-integral value %v", t)
		}
		return int(t), nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

// AsObject asserts that a decoded response is a JSON object.
func AsObject(v any) (map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &ParseError{Reason: fmt.Sprintf("expected JSON object, got %T", v)}
	}
	return obj, nil
}

// AsList asserts that a decoded response is a JSON array.
func AsList(v any) ([]any, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, &ParseError{Reason: fmt.Sprintf("expected JSON array, got %T", v)}
	}
	return list, nil
}
