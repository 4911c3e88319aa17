package i18n

import (
	"golang.org/x/text/language"

	"entity-chat-service/internal/service"
)

// Keys not produced by the service layer.
const (
	KeyChatCreated         = "chat_cree"
	KeyChatsListed         = "chats_recuperes"
	KeyChatFetched         = "chat_recupere"
	KeyChatDeactivated     = "chat_desactive"
	KeyParticipantsAdded   = "participants_ajoutes"
	KeyParticipantsRemoved = "participants_retires"
	KeyPermissionsUpdated  = "permissions_mises_a_jour"
	KeyMessagesFetched     = "messages_recuperes"
	KeyMessageSent         = "message_envoye"
	KeyMessagesRead        = "messages_lus"
	KeySearchResults       = "resultats_recherche"
	KeyAvailableUsers      = "participants_disponibles"
	KeyMissingToken        = "token_manquant"
	KeyInvalidToken        = "token_invalide"
	KeyTooManyRequests     = "trop_de_requetes"
)

var (
	French  = language.French
	English = language.English

	matcher = language.NewMatcher([]language.Tag{French, English})
)

var catalog = map[string]map[language.Tag]string{
	service.CodeInvalidChatID:       {French: "Identifiant de chat invalide", English: "Invalid chat id"},
	service.CodeInvalidEntityType:   {French: "Type d'entité invalide", English: "Invalid entity type"},
	service.CodeInvalidInput:        {French: "Données invalides", English: "Invalid input"},
	service.CodeInvalidTitle:        {French: "Le titre ne peut pas dépasser 100 caractères", English: "Title cannot exceed 100 characters"},
	service.CodeInvalidContent:      {French: "Le contenu doit comporter entre 1 et 1000 caractères", English: "Content must be between 1 and 1000 characters"},
	service.CodeInvalidMessageType:  {French: "Type de message invalide", English: "Invalid message type"},
	service.CodeChatNotFound:        {French: "Chat introuvable", English: "Chat not found"},
	service.CodeParticipantNotFound: {French: "Participant introuvable", English: "Participant not found"},
	service.CodeTaskNotFound:        {French: "Tâche introuvable", English: "Task not found"},
	service.CodeNotAuthorized:       {French: "Action non autorisée", English: "Not authorized"},
	service.CodeNotParticipant:      {French: "Vous ne participez pas à ce chat", English: "You are not a participant of this chat"},
	service.CodeConcurrentUpdate:    {French: "Le chat a été modifié simultanément, veuillez réessayer", English: "The chat was modified concurrently, please retry"},
	service.CodeInternal:            {French: "Erreur serveur", English: "Server error"},
	KeyChatCreated:                  {French: "Chat créé avec succès", English: "Chat created"},
	KeyChatsListed:                  {French: "Chats récupérés avec succès", English: "Chats retrieved"},
	KeyChatFetched:                  {French: "Chat récupéré avec succès", English: "Chat retrieved"},
	KeyChatDeactivated:              {French: "Chat désactivé avec succès", English: "Chat deactivated"},
	KeyParticipantsAdded:            {French: "Participants ajoutés avec succès", English: "Participants added"},
	KeyParticipantsRemoved:          {French: "Participants retirés avec succès", English: "Participants removed"},
	KeyPermissionsUpdated:           {French: "Permissions mises à jour avec succès", English: "Permissions updated"},
	KeyMessagesFetched:              {French: "Messages récupérés avec succès", English: "Messages retrieved"},
	KeyMessageSent:                  {French: "Message envoyé avec succès", English: "Message sent"},
	KeyMessagesRead:                 {French: "Messages marqués comme lus", English: "Messages marked as read"},
	KeySearchResults:                {French: "Résultats de recherche récupérés", English: "Search results retrieved"},
	KeyAvailableUsers:               {French: "Participants disponibles récupérés", English: "Available participants retrieved"},
	KeyMissingToken:                 {French: "Token d'authentification manquant", English: "Missing authentication token"},
	KeyInvalidToken:                 {French: "Token d'authentification invalide", English: "Invalid authentication token"},
	KeyTooManyRequests:              {French: "Trop de requêtes, réessayez plus tard", English: "Too many requests, retry later"},
}

// Negotiate picks the supported language that best matches an Accept-Language
// header. French is the fallback.
func Negotiate(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return French
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return French
	}
	return []language.Tag{French, English}[idx]
}

// T returns the message for key in lang, falling back to French and then to
// the key itself.
func T(lang language.Tag, key string) string {
	entry, ok := catalog[key]
	if !ok {
		return key
	}
	if msg, ok := entry[lang]; ok {
		return msg
	}
	return entry[French]
}
