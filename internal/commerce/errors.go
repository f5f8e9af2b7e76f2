package commerce

import (
	"errors"
	"fmt"
	"strings"
)

// Taxonomie des erreurs du coeur. Les handlers traduisent vers HTTP,
// le coeur ne retente jamais lui-même.
var (
	ErrValidation        = errors.New("données invalides")
	ErrInvalidQuantity   = fmt.Errorf("quantité invalide: %w", ErrValidation)
	ErrNotFound          = errors.New("ressource introuvable")
	ErrProductNotFound   = fmt.Errorf("produit introuvable: %w", ErrNotFound)
	ErrOrderNotFound     = fmt.Errorf("commande introuvable: %w", ErrNotFound)
	ErrEmptyCart         = fmt.Errorf("panier vide: %w", ErrValidation)
	ErrInsufficientStock = errors.New("stock insuffisant")
	ErrConflict          = errors.New("modification concurrente détectée")
	ErrInvalidTransition = errors.New("transition de statut non autorisée")
	ErrUnauthorized      = errors.New("opération non autorisée")

	// ErrInvariant signale un bug, pas une erreur utilisateur : l'opération
	// doit échouer fermée, jamais corriger silencieusement.
	ErrInvariant = errors.New("invariant violé")
)

// InsufficientStockError porte les produits en défaut pour que le client
// puisse agir ligne par ligne.
type InsufficientStockError struct {
	ProductIDs []string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuffisant pour: %s", strings.Join(e.ProductIDs, ", "))
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ValidationError porte le champ fautif.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("champ %s invalide: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
