package repository

import (
	"context"
	"errors"
	"time"

	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	commoncrypto "github.com/AlibekovAA/shop-dash/backend/internal/common/crypto"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/db"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
	"github.com/AlibekovAA/shop-dash/backend/internal/session/domain"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrStateNotFound   = errors.New("oauth state not found")
	ErrStateExists     = errors.New("oauth state already exists")
)

type Repository interface {
	Upsert(ctx context.Context, session domain.Session) error
	FindByID(ctx context.Context, id string) (domain.Session, error)
	DeleteByShop(ctx context.Context, shop string) (int64, error)
}

type StateRepository interface {
	SaveState(ctx context.Context, state domain.OAuthState) error
	ConsumeState(ctx context.Context, state string) (domain.OAuthState, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// PgRepository stores sessions with the access token sealed by cipher.
type PgRepository struct {
	pool   *pgxpool.Pool
	tx     db.TxManager
	cipher commoncrypto.TokenCipher
	log    *logger.Logger
}

func NewPgRepository(pool *pgxpool.Pool, cipher commoncrypto.TokenCipher, log *logger.Logger) *PgRepository {
	return &PgRepository{
		pool:   pool,
		tx:     db.NewTxManager(pool),
		cipher: cipher,
		log:    log,
	}
}

const upsertSessionSQL = `INSERT INTO sessions (id, shop, access_token_enc, scope, is_online, expires_at, created_at, updated_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	 ON CONFLICT (id) DO UPDATE SET
	     access_token_enc = EXCLUDED.access_token_enc,
	     scope = EXCLUDED.scope,
	     is_online = EXCLUDED.is_online,
	     expires_at = EXCLUDED.expires_at,
	     updated_at = EXCLUDED.updated_at`

// upsertSessionArgs binds in upsertSessionSQL column order. A zero
// CreatedAt falls back to UpdatedAt.
func upsertSessionArgs(s domain.Session, sealed string) []any {
	created := s.CreatedAt
	if created.IsZero() {
		created = s.UpdatedAt
	}
	return []any{s.ID, s.Shop, sealed, s.Scope, s.IsOnline, s.ExpiresAt, created, s.UpdatedAt}
}

func (r *PgRepository) Upsert(ctx context.Context, s domain.Session) error {
	start := time.Now()

	sealed, err := r.cipher.Encrypt(s.AccessToken)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, upsertSessionSQL, upsertSessionArgs(s, sealed)...)
	return db.HandleExecError(err, "upsert session", start)
}

func (r *PgRepository) FindByID(ctx context.Context, id string) (domain.Session, error) {
	var s domain.Session
	var sealed string

	err := db.WithRetry(ctx, r.log, "load session", func(ctx context.Context) error {
		start := time.Now()
		row := r.pool.QueryRow(
			ctx,
			`SELECT id, shop, access_token_enc, scope, is_online, expires_at, created_at, updated_at
			 FROM sessions WHERE id = $1`,
			id,
		)
		err := row.Scan(&s.ID, &s.Shop, &sealed, &s.Scope, &s.IsOnline, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt)
		return db.HandleQueryError(err, ErrSessionNotFound, "load session", start)
	})
	if err != nil {
		return domain.Session{}, err
	}

	token, err := r.cipher.Decrypt(sealed)
	if err != nil {
		return domain.Session{}, err
	}
	s.AccessToken = token
	return s, nil
}

// DeleteByShop removes the shop's sessions and any pending install states
// in one transaction.
func (r *PgRepository) DeleteByShop(ctx context.Context, shop string) (int64, error) {
	var deleted int64
	err := r.tx.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		start := time.Now()
		tag, err := tx.Exec(ctx, `DELETE FROM sessions WHERE shop = $1`, shop)
		if err := db.HandleExecError(err, "delete shop sessions", start); err != nil {
			return err
		}
		deleted = tag.RowsAffected()

		start = time.Now()
		_, err = tx.Exec(ctx, `DELETE FROM oauth_states WHERE shop = $1`, shop)
		return db.HandleExecError(err, "delete shop oauth states", start)
	})
	return deleted, err
}

func (r *PgRepository) SaveState(ctx context.Context, st domain.OAuthState) error {
	start := time.Now()
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO oauth_states (state, shop, expires_at) VALUES ($1, $2, $3)`,
		st.State,
		st.Shop,
		st.ExpiresAt,
	)
	if db.IsUniqueViolation(err) {
		return ErrStateExists
	}
	return db.HandleExecError(err, "save oauth state", start)
}

// ConsumeState deletes and returns the state so it can be used once.
func (r *PgRepository) ConsumeState(ctx context.Context, state string) (domain.OAuthState, error) {
	start := time.Now()
	var st domain.OAuthState
	err := r.pool.QueryRow(
		ctx,
		`DELETE FROM oauth_states WHERE state = $1 RETURNING state, shop, expires_at`,
		state,
	).Scan(&st.State, &st.Shop, &st.ExpiresAt)
	if err := db.HandleQueryError(err, ErrStateNotFound, "consume oauth state", start); err != nil {
		return domain.OAuthState{}, err
	}
	return st, nil
}

func (r *PgRepository) DeleteExpired(ctx context.Context) (int64, error) {
	start := time.Now()
	tag, err := r.pool.Exec(ctx, `DELETE FROM oauth_states WHERE expires_at < NOW()`)
	if err := db.HandleExecError(err, "delete expired oauth states", start); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
