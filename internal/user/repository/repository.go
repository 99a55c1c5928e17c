package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
	"github.com/AlibekovAA/shop-dash/backend/internal/observability/metrics"
	"github.com/AlibekovAA/shop-dash/backend/internal/user/domain"
)

var (
	ErrUserNotFound       = errors.New("registered user not found")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidID          = errors.New("invalid registered user id")
)

type Repository interface {
	Create(ctx context.Context, user domain.RegisteredUser) (domain.ID, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, limit int) ([]domain.RegisteredUser, error)
	FindByID(ctx context.Context, id domain.ID) (domain.RegisteredUser, error)
	Delete(ctx context.Context, id domain.ID) error
}

// DatabaseProvider hands out a live database handle, reconnecting when
// needed.
type DatabaseProvider interface {
	Database(ctx context.Context) (*mongo.Database, error)
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	FullName     string             `bson:"fullName"`
	Email        string             `bson:"email"`
	Phone        string             `bson:"phone"`
	Password     string             `bson:"password,omitempty"`
	Terms        bool               `bson:"terms"`
	RegisteredAt time.Time          `bson:"registeredAt"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d userDocument) toDomain() domain.RegisteredUser {
	return domain.RegisteredUser{
		ID:            domain.ID(d.ID.Hex()),
		FullName:      d.FullName,
		Email:         d.Email,
		Phone:         d.Phone,
		PasswordHash:  d.Password,
		TermsAccepted: d.Terms,
		RegisteredAt:  d.RegisteredAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

var withoutPassword = bson.M{"password": 0}

type MongoRepository struct {
	db         DatabaseProvider
	collection string
	log        *logger.Logger
}

func NewMongoRepository(db DatabaseProvider, collection string, log *logger.Logger) *MongoRepository {
	return &MongoRepository{db: db, collection: collection, log: log}
}

func (r *MongoRepository) coll(ctx context.Context) (*mongo.Collection, error) {
	db, err := r.db.Database(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(r.collection), nil
}

func (r *MongoRepository) observe(op string, start time.Time, err error) {
	metrics.MongoOperationDurationSeconds.WithLabelValues(op, r.collection).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		metrics.MongoOperationErrors.WithLabelValues(op, r.collection).Inc()
	}
}

// EnsureIndexes creates the unique email index. Safe to call on every
// startup.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	coll, err := r.coll(ctx)
	if err != nil {
		return err
	}
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, user domain.RegisteredUser) (id domain.ID, err error) {
	start := time.Now()
	defer func() { r.observe("insert", start, err) }()

	coll, err := r.coll(ctx)
	if err != nil {
		return "", err
	}

	res, err := coll.InsertOne(ctx, userDocument{
		FullName:     user.FullName,
		Email:        user.Email,
		Phone:        user.Phone,
		Password:     user.PasswordHash,
		Terms:        user.TermsAccepted,
		RegisteredAt: user.RegisteredAt,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrEmailAlreadyExists
		}
		return "", fmt.Errorf("failed to insert registered user: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return domain.ID(oid.Hex()), nil
}

func (r *MongoRepository) ExistsByEmail(ctx context.Context, email string) (exists bool, err error) {
	start := time.Now()
	defer func() { r.observe("count", start, err) }()

	coll, err := r.coll(ctx)
	if err != nil {
		return false, err
	}

	n, err := coll.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return n > 0, nil
}

// List returns the newest registrations first without password hashes.
func (r *MongoRepository) List(ctx context.Context, limit int) (users []domain.RegisteredUser, err error) {
	start := time.Now()
	defer func() { r.observe("find", start, err) }()

	coll, err := r.coll(ctx)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(withoutPassword)

	cur, err := coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list registered users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode registered users: %w", err)
	}

	users = make([]domain.RegisteredUser, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toDomain())
	}
	return users, nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id domain.ID) (user domain.RegisteredUser, err error) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return domain.RegisteredUser{}, ErrInvalidID
	}

	start := time.Now()
	defer func() { r.observe("find_one", start, err) }()

	coll, err := r.coll(ctx)
	if err != nil {
		return domain.RegisteredUser{}, err
	}

	var doc userDocument
	err = coll.FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(withoutPassword)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.RegisteredUser{}, ErrUserNotFound
		}
		return domain.RegisteredUser{}, fmt.Errorf("failed to find registered user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoRepository) Delete(ctx context.Context, id domain.ID) (err error) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return ErrInvalidID
	}

	start := time.Now()
	defer func() { r.observe("delete", start, err) }()

	coll, err := r.coll(ctx)
	if err != nil {
		return err
	}

	res, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete registered user: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
