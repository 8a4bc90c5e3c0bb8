package response

// ErrorResponse is the body of every non-2xx JSON answer.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"` // field name -> failed rule
}

const (
	MsgInvalidRequest  = "Données invalides"
	MsgUnauthenticated = "Non authentifié"
	MsgForbidden       = "Accès refusé"
	MsgNotFound        = "Ressource introuvable"
	MsgTooManyRequests = "Trop de requêtes"
	MsgInternal        = "Erreur interne du serveur"
)
