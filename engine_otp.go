package careauth

import (
	"context"
	"fmt"
)

// IssueOTP generates a fresh six-digit code for mobile and stores its hash
// under the mobile's secret key, replacing any code issued earlier.
//
// IssueOTP may return an error when input validation, dependency calls, or security checks fail.
// IssueOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) IssueOTP(ctx context.Context, mobile string) (*OTPIssue, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}
	res, err := e.flows.IssueOTP(ctx, mobile)
	if err != nil {
		return nil, err
	}
	return &OTPIssue{
		Mobile:    res.Mobile,
		Code:      res.Code,
		ExpiresIn: res.ExpiresIn,
	}, nil
}

// VerifyOTP checks code against the live secret for mobile, consumes it and
// returns the identity of the account registered under mobile.
//
// VerifyOTP may return an error when input validation, dependency calls, or security checks fail.
// VerifyOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) VerifyOTP(ctx context.Context, mobile, code string) (Identity, error) {
	account, err := e.verifyOTP(ctx, mobile, code)
	if err != nil {
		return Identity{}, err
	}
	return account.Identity(), nil
}

// Login verifies code for mobile and issues a session token for the account.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, mobile, code string) (*LoginResult, error) {
	account, err := e.verifyOTP(ctx, mobile, code)
	if err != nil {
		return nil, err
	}

	identity := account.Identity()
	token, err := e.issueToken(ctx, identity)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Account:  account,
		Identity: identity,
		Token:    *token,
	}, nil
}

func (e *Engine) verifyOTP(ctx context.Context, mobile, code string) (Account, error) {
	if e == nil || !e.flows.Initialized() {
		return Account{}, ErrEngineNotReady
	}
	res, err := e.flows.VerifyOTP(ctx, mobile, code)
	if err != nil {
		return Account{}, err
	}
	if res == nil {
		return Account{}, fmt.Errorf("%w: empty verification result", ErrEngineNotReady)
	}
	return fromFlowAccount(res.Account), nil
}
