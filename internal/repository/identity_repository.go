package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/room-reservation/internal/model"
)

// IdentityRepo links chat platform accounts to users.  A chat account
// becomes authorized by proving the user's email and password once.
type IdentityRepo struct {
	db    *sql.DB
	users *UserRepo
	cost  int // bcrypt cost for accounts created from the chat
}

func NewIdentityRepo(db *sql.DB, users *UserRepo, cost int) *IdentityRepo {
	return &IdentityRepo{db: db, users: users, cost: cost}
}

// ResolveIdentity returns the user linked to externalID, or ErrNotLinked.
func (r *IdentityRepo) ResolveIdentity(ctx context.Context, externalID string) (uint64, error) {
	var userID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT ci.user_id FROM chat_identities ci JOIN users u ON u.id = ci.user_id
		 WHERE ci.external_id = ? AND u.is_active = TRUE LIMIT 1`, externalID).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotLinked
	}
	if err != nil {
		return 0, fmt.Errorf("resolve chat identity: %w", err)
	}
	return userID, nil
}

// IsAuthorized reports whether externalID is linked to an active user.
func (r *IdentityRepo) IsAuthorized(ctx context.Context, externalID string) (bool, error) {
	_, err := r.ResolveIdentity(ctx, externalID)
	if errors.Is(err, ErrNotLinked) {
		return false, nil
	}
	return err == nil, err
}

// Link verifies the credentials and links externalID to that user.
func (r *IdentityRepo) Link(ctx context.Context, externalID, email, password string) (uint64, error) {
	u, err := r.users.Authenticate(ctx, email, password)
	if err != nil {
		return 0, err
	}
	if err := r.link(ctx, externalID, u.ID); err != nil {
		return 0, err
	}
	return u.ID, nil
}

// Register creates a CUSTOMER account and links externalID to it.  A
// taken email returns ErrEmailExists and nothing is linked.
func (r *IdentityRepo) Register(ctx context.Context, externalID, email, password string) (uint64, error) {
	if _, err := r.ResolveIdentity(ctx, externalID); err == nil {
		return 0, ErrAlreadyLinked
	} else if !errors.Is(err, ErrNotLinked) {
		return 0, err
	}
	id, err := r.users.Create(ctx, email, password, model.RoleCustomer, r.cost)
	if err != nil {
		return 0, err
	}
	if err := r.link(ctx, externalID, id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *IdentityRepo) link(ctx context.Context, externalID string, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO chat_identities (external_id, user_id) VALUES (?,?)", externalID, userID)
	if err != nil {
		if isDuplicate(err) {
			return ErrAlreadyLinked
		}
		return fmt.Errorf("link chat identity: %w", err)
	}
	return nil
}

// Unlink removes the link for externalID.  Unlinking an unknown account
// returns ErrNotLinked.
func (r *IdentityRepo) Unlink(ctx context.Context, externalID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM chat_identities WHERE external_id = ?", externalID)
	if err != nil {
		return fmt.Errorf("unlink chat identity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotLinked
	}
	return nil
}
