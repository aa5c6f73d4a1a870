package service

import (
	"strconv"
	"strings"

	"github.com/segyhp/committee-ledger/internal/domain"
)

const (
	loanIDPrefix     = "L-"
	externalIDPrefix = "EXT-"

	loanIDBase     = 1000
	memberIDBase   = 100
	externalIDBase = 500
)

// NextLoanID returns the id after the highest L-<n> id in loans, starting at L-1001.
func NextLoanID(loans []*domain.Loan) string {
	highest := loanIDBase
	for _, l := range loans {
		if n, ok := sequence(l.ID, loanIDPrefix); ok && n > highest {
			highest = n
		}
	}
	return loanIDPrefix + strconv.Itoa(highest+1)
}

// NextMemberID returns the id after the highest numeric member id, starting at 101.
// External borrowers are numbered separately.
func NextMemberID(members []*domain.Member) string {
	highest := memberIDBase
	for _, m := range members {
		if n, ok := sequence(m.ID, ""); ok && n > highest {
			highest = n
		}
	}
	return strconv.Itoa(highest + 1)
}

// NextExternalMemberID returns the id after the highest EXT-<n> id, starting at EXT-501.
func NextExternalMemberID(members []*domain.Member) string {
	highest := externalIDBase
	for _, m := range members {
		if n, ok := sequence(m.ID, externalIDPrefix); ok && n > highest {
			highest = n
		}
	}
	return externalIDPrefix + strconv.Itoa(highest+1)
}

func sequence(id, prefix string) (int, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
