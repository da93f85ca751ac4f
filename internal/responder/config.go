package responder

import (
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/joshsymonds/gmail-responder/internal/cortex"
)

type AuthMode string

const (
	AuthServiceAccount AuthMode = "service_account"
	AuthGmailctl       AuthMode = "gmailctl"
)

// Config is the responder section of the Cortex job input.
type Config struct {
	Service            string   `validate:"required"`
	TheHiveURL         string   `validate:"required,url"`
	TheHiveAPIKey      string   `validate:"required"`
	AuthMode           AuthMode `validate:"oneof=service_account gmailctl"`
	ServiceAccountFile string   `validate:"required_if=AuthMode service_account"`
	GmailctlDir        string   `validate:"required_if=AuthMode gmailctl"`
}

var validate = validator.New()

// LoadConfig reads and validates the config section of a job.
func LoadConfig(job *cortex.Job) (Config, error) {
	cfg := Config{
		Service:            job.Param("config.service"),
		TheHiveURL:         job.Param("config.thehive_url"),
		TheHiveAPIKey:      job.Param("config.thehive_api_key"),
		AuthMode:           AuthMode(job.Param("config.auth_mode")),
		ServiceAccountFile: job.Param("config.service_account_file"),
		GmailctlDir:        job.Param("config.gmailctl_dir"),
	}
	if cfg.AuthMode == "" {
		cfg.AuthMode = AuthServiceAccount
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, errors.Mark(errors.Wrap(err, "invalid responder config"), ErrInvalidInput)
	}
	return cfg, nil
}

// Input is the part of the job data the dispatch flows read.
type Input struct {
	Type     string // data._type, "case" for case-level responders
	ID       string // data._id
	DataType string // data.dataType for observables
	Data     string // data.data
	Parent   string // data._parent, the case owning an observable
}

func InputFromJob(job *cortex.Job) Input {
	return Input{
		Type:     job.Param("data._type"),
		ID:       job.Param("data._id"),
		DataType: job.Param("data.dataType"),
		Data:     job.Param("data.data"),
		Parent:   job.Param("data._parent"),
	}
}
