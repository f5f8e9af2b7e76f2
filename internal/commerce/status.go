package commerce

// OrderStatus suit la machine à états de la commande. pending est l'état
// initial, delivered et cancelled sont terminaux.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// transitions liste les arêtes autorisées. Tout le reste, auto-transitions
// comprises, est rejeté côté serveur quel que soit le client.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered, StatusCancelled},
	StatusDelivered: {},
	StatusCancelled: {},
}

// ValidStatus indique si s est un statut connu.
func ValidStatus(s OrderStatus) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition vérifie l'arête (from → to) dans la table.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal indique si plus aucune transition ne part de s.
func IsTerminal(s OrderStatus) bool {
	return ValidStatus(s) && len(transitions[s]) == 0
}

// NextStatuses retourne les statuts atteignables depuis s.
func NextStatuses(s OrderStatus) []OrderStatus {
	next := transitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// AllStatuses sert aux réponses d'erreur et à la validation des filtres.
func AllStatuses() []OrderStatus {
	return []OrderStatus{StatusPending, StatusShipped, StatusDelivered, StatusCancelled}
}
