package domain

import "time"

// Transfer is the journal record of one executed command.
type Transfer struct {
	ID         string
	Verb       Verb
	Product    string
	Amount     int
	Outcome    string // "accepted" or the failure kind
	RolledBack bool
	CreatedAt  time.Time
}

const OutcomeAccepted = "accepted"

func NewTransfer(id string, req Request, err error, rolledBack bool) Transfer {
	outcome := OutcomeAccepted
	if err != nil {
		outcome = string(KindOf(err))
	}
	return Transfer{
		ID:         id,
		Verb:       req.Verb(),
		Product:    req.Product,
		Amount:     req.Amount,
		Outcome:    outcome,
		RolledBack: rolledBack,
		CreatedAt:  time.Now().UTC(),
	}
}
