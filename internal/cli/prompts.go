package cli

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/dyike/xagent/internal/models"
)

// Prompts run only for values not given as flags.

func notBlank(name string) survey.Validator {
	return func(val interface{}) error {
		if str, ok := val.(string); !ok || strings.TrimSpace(str) == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
		return nil
	}
}

func validEmail(val interface{}) error {
	str, _ := val.(string)
	if _, err := mail.ParseAddress(strings.TrimSpace(str)); err != nil {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

func askInput(value *string, message, help string, v survey.Validator) error {
	if *value != "" {
		return nil
	}
	prompt := &survey.Input{Message: message, Help: help}
	return survey.AskOne(prompt, value, survey.WithValidator(v))
}

func askSecret(value *string, message, help string) error {
	if *value != "" {
		return nil
	}
	prompt := &survey.Password{Message: message, Help: help}
	return survey.AskOne(prompt, value, survey.WithValidator(notBlank("value")))
}

// PromptForCredentials fills in whatever part of a login is missing.
func PromptForCredentials(creds *models.Credentials) error {
	if err := askInput(&creds.Email, "Email:", "The address you registered with", validEmail); err != nil {
		return err
	}
	return askSecret(&creds.Password, "Password:", "")
}

// PromptForRegistration asks for the new account's details and a
// confirmation of the password.
func PromptForRegistration(reg *models.Registration, confirm *string) error {
	if err := askInput(&reg.Email, "Email:", "", validEmail); err != nil {
		return err
	}
	if err := askInput(&reg.Username, "Username:", "Shown on your dashboard", notBlank("username")); err != nil {
		return err
	}
	if err := askSecret(&reg.Password, "Password:", ""); err != nil {
		return err
	}
	return askSecret(confirm, "Confirm password:", "Type the same password again")
}

// PromptForPlatformAccount asks for the X handle and the OAuth token pair.
func PromptForPlatformAccount(acct *models.PlatformAccount) error {
	if err := askInput(&acct.Handle, "X username:", "Without the leading @", notBlank("username")); err != nil {
		return err
	}
	if err := askSecret(&acct.AccessToken, "Access token:", "From the X developer portal"); err != nil {
		return err
	}
	return askSecret(&acct.AccessTokenSecret, "Access token secret:", "")
}

// PromptForConfirmation asks a yes/no question, defaulting to yes.
func PromptForConfirmation(message string) (bool, error) {
	confirmed := true
	err := survey.AskOne(&survey.Confirm{Message: message, Default: true}, &confirmed)
	return confirmed, err
}
