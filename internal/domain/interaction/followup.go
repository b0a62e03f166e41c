package interaction

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_followup.go -package=mocks . FollowUp

import "context"

// FollowUp completes a deferred response after the reply was sent.
type FollowUp interface {
	EditOriginalResponse(ctx context.Context, applicationID, token, content string) error
}
