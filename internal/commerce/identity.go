package commerce

// Identity est l'identité vérifiée par la couche d'authentification externe,
// passée explicitement à chaque opération du coeur. Le coeur ne lit jamais
// l'identité depuis un contexte implicite.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

func (i Identity) IsAdmin() bool { return i.Role == "admin" }

func (i Identity) IsZero() bool { return i.UserID == "" }
