package service

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies service failures for the transport layer.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindForbidden
	KindConflict
	KindInfrastructure
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindInfrastructure:
		return "infrastructure"
	}
	return "unknown"
}

// HTTPStatus is the status a failure of this kind is reported with, over REST
// and at the websocket handshake.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Localization keys carried by service errors.
const (
	CodeInvalidChatID       = "id_chat_invalide"
	CodeInvalidEntityType   = "type_entite_invalide"
	CodeInvalidInput        = "donnees_invalides"
	CodeInvalidTitle        = "titre_invalide"
	CodeInvalidContent      = "contenu_invalide"
	CodeInvalidMessageType  = "type_message_invalide"
	CodeChatNotFound        = "chat_introuvable"
	CodeParticipantNotFound = "participant_introuvable"
	CodeTaskNotFound        = "tache_introuvable"
	CodeNotAuthorized       = "non_autorise"
	CodeNotParticipant      = "non_participant"
	CodeConcurrentUpdate    = "modification_concurrente"
	CodeInternal            = "erreur_serveur"
)

// Error is the error type returned by ChatService operations.
type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Err: err}
}

func validationErr(code string) error { return newError(KindValidation, code, nil) }

func notFoundErr(code string) error { return newError(KindNotFound, code, nil) }

func forbiddenErr(code string) error { return newError(KindForbidden, code, nil) }

func infraErr(err error) error { return newError(KindInfrastructure, CodeInternal, err) }

// KindOf extracts the kind of err, KindInfrastructure for foreign errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInfrastructure
}

// CodeOf extracts the localization key of err.
func CodeOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeInternal
}
