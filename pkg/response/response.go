package response

import "github.com/gofiber/fiber/v2"

// Error messages shared by handlers and middleware
const (
	MsgMissingCredential  = "Missing FAL_KEY env"
	MsgFileRequired       = "file is required"
	MsgPromptRequired     = "prompt is required"
	MsgValidationFailed   = "Validation failed"
	MsgProviderValidation = "Validation error from provider"
	MsgNoVideo            = "No video URL in response"
	MsgRateLimited        = "Rate limit exceeded"
	MsgInternal           = "Internal error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error    string      `json:"error"`
	Detail   interface{} `json:"detail,omitempty"`
	Provider interface{} `json:"provider,omitempty"`
}

func Error(c *fiber.Ctx, status int, message string, detail interface{}) error {
	return c.Status(status).JSON(ErrorResponse{
		Error:  message,
		Detail: detail,
	})
}

func ValidationError(c *fiber.Ctx, message string, detail interface{}) error {
	return Error(c, fiber.StatusBadRequest, message, detail)
}

func ProviderValidation(c *fiber.Ctx, detail interface{}) error {
	return Error(c, fiber.StatusUnprocessableEntity, MsgProviderValidation, detail)
}

func RateLimited(c *fiber.Ctx) error {
	return Error(c, fiber.StatusTooManyRequests, MsgRateLimited, nil)
}

func ServiceError(c *fiber.Ctx, message string, detail interface{}) error {
	return Error(c, fiber.StatusInternalServerError, message, detail)
}

// BadGateway reports an upstream reply that broke the expected shape,
// echoing whatever the provider sent back.
func BadGateway(c *fiber.Ctx, message string, provider interface{}) error {
	return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
		Error:    message,
		Provider: provider,
	})
}

func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(data)
}
