package onboarding

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"towerdefense/internal/ports"
)

// Provisioner creates the game account for a new owner.
type Provisioner interface {
	Provision(ctx context.Context, ownerID string) (bool, error)
}

// Result captures non-fatal onboarding outcomes.
type Result struct {
	// ProfileUpdateErr is set when the profile update failed but onboarding continued.
	ProfileUpdateErr error
	// AccountProvisioned is false when the account already existed.
	AccountProvisioned bool
	DisplayName        string
}

// Service handles post-auth onboarding for new users.
type Service struct {
	accounts    ports.AccountPort
	provisioner Provisioner
	rng         *rand.Rand
}

// NewService constructs an onboarding service with required ports.
// accounts/provisioner must be non-nil; rng may be nil to use a time-seeded default.
func NewService(accounts ports.AccountPort, provisioner Provisioner, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		accounts:    accounts,
		provisioner: provisioner,
		rng:         rng,
	}
}

// OnboardNewUser names the commander and provisions the tower defense account
// with its starting gold.
// Returns an error only when the account cannot be provisioned.
func (s *Service) OnboardNewUser(ctx context.Context, userID string) (Result, error) {
	if s.accounts == nil || s.provisioner == nil {
		return Result{}, fmt.Errorf("onboarding service not configured")
	}

	result := Result{DisplayName: s.generateCommanderName()}
	if err := s.accounts.UpdateProfile(ctx, userID, result.DisplayName, result.DisplayName); err != nil {
		// Profile updates are best-effort; the account is what matters.
		result.ProfileUpdateErr = err
	}

	created, err := s.provisioner.Provision(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("failed to provision account: %w", err)
	}
	result.AccountProvisioned = created
	return result, nil
}

func (s *Service) generateCommanderName() string {
	adjectives := []string{"Iron", "Stone", "Brave", "Silent", "Swift", "Stalwart", "Mighty", "Crimson", "Grim", "Wild"}
	nouns := []string{"Warden", "Sentinel", "Archer", "Bastion", "Marshal", "Ranger", "Paladin", "Mage", "Knight", "Captain"}

	adj := adjectives[s.rng.Intn(len(adjectives))]
	noun := nouns[s.rng.Intn(len(nouns))]
	num := s.rng.Intn(9000) + 1000

	return fmt.Sprintf("%s%s%d", adj, noun, num)
}
