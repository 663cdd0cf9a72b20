package panels

import (
	"context"

	"github.com/dyike/xagent/internal/api"
	"github.com/dyike/xagent/internal/models"
	"github.com/dyike/xagent/internal/store"
)

type AuthMode int

const (
	ModeLogin AuthMode = iota
	ModeRegister
)

func (m AuthMode) String() string {
	if m == ModeRegister {
		return "register"
	}
	return "login"
}

type AuthPhase int

const (
	PhaseIdle AuthPhase = iota
	PhaseSubmitting
	PhaseError
)

type Field int

const (
	FieldEmail Field = iota
	FieldPassword
	FieldConfirm
	FieldUsername
)

// AuthForm is the content of the sign-in form.
type AuthForm struct {
	Email    string
	Password string
	Confirm  string
	Username string
}

// AuthRequest is a validated submission captured by Begin.
type AuthRequest struct {
	Mode AuthMode
	Form AuthForm
}

type AuthResult struct {
	User models.User
	Err  error
}

// AuthPanel is the login/register form.
type AuthPanel struct {
	api AuthAPI
	st  Dispatcher

	mode  AuthMode
	phase AuthPhase
	err   string
	form  AuthForm
}

func NewAuthPanel(a AuthAPI, st Dispatcher) *AuthPanel {
	return &AuthPanel{api: a, st: st}
}

func (p *AuthPanel) Mode() AuthMode   { return p.mode }
func (p *AuthPanel) Phase() AuthPhase { return p.phase }
func (p *AuthPanel) Form() AuthForm   { return p.form }

// Error is the message shown in the error phase.
func (p *AuthPanel) Error() string {
	if p.phase != PhaseError {
		return ""
	}
	return p.err
}

// ToggleMode switches between login and register. It only works when idle.
func (p *AuthPanel) ToggleMode() bool {
	if p.phase != PhaseIdle {
		return false
	}
	if p.mode == ModeLogin {
		p.mode = ModeRegister
	} else {
		p.mode = ModeLogin
	}
	return true
}

// SetField edits the form. Editing dismisses a shown error.
func (p *AuthPanel) SetField(f Field, value string) {
	switch f {
	case FieldEmail:
		p.form.Email = value
	case FieldPassword:
		p.form.Password = value
	case FieldConfirm:
		p.form.Confirm = value
	case FieldUsername:
		p.form.Username = value
	}
	if p.phase == PhaseError {
		p.phase = PhaseIdle
		p.err = ""
	}
}

// Begin validates the form and enters the submitting phase.
func (p *AuthPanel) Begin() (AuthRequest, error) {
	if p.phase == PhaseSubmitting {
		return AuthRequest{}, ErrBusy
	}
	if p.mode == ModeRegister && p.form.Password != p.form.Confirm {
		err := api.Validation("register", "Passwords do not match")
		p.fail(err)
		return AuthRequest{}, err
	}
	p.phase = PhaseSubmitting
	p.err = ""
	return AuthRequest{Mode: p.mode, Form: p.form}, nil
}

// Execute signs in or registers. It does not touch the panel.
//
// Login fetches the account after the token exchange. Register signs in
// with the new credentials and keeps the account returned by registration.
func (p *AuthPanel) Execute(ctx context.Context, req AuthRequest) AuthResult {
	creds := models.Credentials{Email: req.Form.Email, Password: req.Form.Password}

	if req.Mode == ModeRegister {
		user, err := p.api.Register(ctx, models.Registration{
			Email:    req.Form.Email,
			Password: req.Form.Password,
			Username: req.Form.Username,
		})
		if err != nil {
			return AuthResult{Err: err}
		}
		if _, err := p.api.Login(ctx, creds); err != nil {
			return AuthResult{Err: err}
		}
		return AuthResult{User: user}
	}

	if _, err := p.api.Login(ctx, creds); err != nil {
		return AuthResult{Err: err}
	}
	user, err := p.api.GetCurrentUser(ctx)
	if err != nil {
		return AuthResult{Err: err}
	}
	return AuthResult{User: user}
}

// Complete applies the outcome of Execute.
func (p *AuthPanel) Complete(res AuthResult) {
	if res.Err != nil {
		p.fail(res.Err)
		return
	}
	p.phase = PhaseIdle
	p.err = ""
	p.form = AuthForm{Email: p.form.Email}
	user := res.User
	p.st.Dispatch(store.SetUser{User: &user})
}

// Submit runs Begin, Execute and Complete in sequence.
func (p *AuthPanel) Submit(ctx context.Context) error {
	req, err := p.Begin()
	if err != nil {
		return err
	}
	res := p.Execute(ctx, req)
	p.Complete(res)
	return res.Err
}

// Logout forgets the credential and resets the store.
func (p *AuthPanel) Logout() error {
	err := p.api.Logout()
	p.st.Dispatch(store.Reset{})
	p.mode, p.phase, p.err, p.form = ModeLogin, PhaseIdle, "", AuthForm{}
	return err
}

func (p *AuthPanel) fail(err error) {
	p.phase = PhaseError
	p.err = api.MessageOf(err)
}
