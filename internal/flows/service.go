package flows

import "context"

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Validate.ParseToken != nil
}

func (s Service) IssueOTP(ctx context.Context, mobile string) (*IssueOTPResult, error) {
	return RunIssueOTP(ctx, mobile, s.deps.IssueOTP)
}

func (s Service) VerifyOTP(ctx context.Context, mobile, code string) (*VerifyOTPResult, error) {
	return RunVerifyOTP(ctx, mobile, code, s.deps.VerifyOTP)
}

func (s Service) Validate(ctx context.Context, tokenStr string) ValidateResult {
	return RunValidate(ctx, tokenStr, s.deps.Validate)
}

func (s Service) ValidateHeader(ctx context.Context, header string) ValidateResult {
	return RunValidateHeader(ctx, header, s.deps.Validate)
}

func (s Service) Logout(ctx context.Context, tokenStr string) LogoutResult {
	return RunLogout(ctx, tokenStr, s.deps.Logout)
}
