package service

import (
	"errors"
	"strings"

	"github.com/RigelNana/vitalicio/storage"
	"github.com/jackc/pgx/v5/pgconn"
)

// Error kinds. Match them with errors.Is.
var (
	ErrValidation       = errors.New("validation error")
	ErrAuth             = errors.New("authentication error")
	ErrRemoteFetch      = errors.New("remote fetch error")
	ErrRemoteWrite      = errors.New("remote write error")
	ErrUploadSize       = errors.New("upload exceeds size limit")
	ErrUploadPermission = errors.New("upload rejected by storage policy")
	ErrNotConfirmed     = errors.New("operation not confirmed")
	ErrNotFound         = errors.New("material not found")
)

// Error carries the kind, the message shown to the user and the underlying
// collaborator error, if any.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// remoteMessage is the text a failed collaborator call surfaces to the user.
func remoteMessage(err error) string {
	if err == nil {
		return ""
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Message != "" {
		return pgErr.Message
	}
	return err.Error()
}

const (
	msgUUIDMismatch   = "Erro de Banco: O ID usado não é compatível com UUID. Execute o SQL de reparo (portal repair-sql)."
	msgRLSRemediation = "Erro de permissão no storage: execute o script de reparo (portal repair-sql) para liberar o upload."
)

// isUUIDMismatch recognises a database refusing an id that is not a uuid.
func isUUIDMismatch(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "22P02" && strings.Contains(strings.ToLower(pgErr.Message), "uuid")
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "uuid")
}

func isPermissionDenied(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42501" {
		return true
	}
	return storage.IsPermissionDenied(err)
}
