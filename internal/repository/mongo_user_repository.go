package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/swarnim921/Smart-Resume/internal/model"
)

const (
	usersCollection     = "users"
	bootstrapCollection = "bootstrap"
)

// userDocument is the BSON shape of a user. The code fields use omitempty
// so a verified account has no verificationCodeExpiresAt at all and the TTL
// index never matches it.
type userDocument struct {
	ID                        string     `bson:"_id"`
	Email                     string     `bson:"email"`
	Name                      string     `bson:"name"`
	PasswordHash              string     `bson:"password"`
	Role                      string     `bson:"role"`
	Verified                  bool       `bson:"isVerified"`
	VerificationCode          *string    `bson:"verificationCode,omitempty"`
	VerificationCodeExpiresAt *time.Time `bson:"verificationCodeExpiresAt,omitempty"`
	Version                   int64      `bson:"version"`
	CreatedAt                 time.Time  `bson:"createdAt"`
	UpdatedAt                 time.Time  `bson:"updatedAt"`
}

func toDocument(u model.User) userDocument {
	return userDocument{
		ID:                        u.ID,
		Email:                     u.Email,
		Name:                      u.Name,
		PasswordHash:              u.PasswordHash,
		Role:                      string(u.Role),
		Verified:                  u.Verified,
		VerificationCode:          u.VerificationCode,
		VerificationCodeExpiresAt: u.VerificationCodeExpiresAt,
		Version:                   u.Version,
		CreatedAt:                 u.CreatedAt,
		UpdatedAt:                 u.UpdatedAt,
	}
}

func (d userDocument) toModel() model.User {
	u := model.User{
		ID:                        d.ID,
		Email:                     d.Email,
		Name:                      d.Name,
		PasswordHash:              d.PasswordHash,
		Role:                      model.RoleOrDefault(d.Role),
		Verified:                  d.Verified,
		VerificationCode:          d.VerificationCode,
		VerificationCodeExpiresAt: d.VerificationCodeExpiresAt,
		Version:                   d.Version,
		CreatedAt:                 d.CreatedAt.UTC(),
		UpdatedAt:                 d.UpdatedAt.UTC(),
	}
	if u.VerificationCodeExpiresAt != nil {
		t := u.VerificationCodeExpiresAt.UTC()
		u.VerificationCodeExpiresAt = &t
	}
	return u
}

// MongoUserRepo is the document-store implementation of UserStore. Writes
// are compare-and-swap on the version field.
type MongoUserRepo struct {
	users     *mongo.Collection
	bootstrap *mongo.Collection
}

func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{
		users:     db.Collection(usersCollection),
		bootstrap: db.Collection(bootstrapCollection),
	}
}

var _ UserStore = (*MongoUserRepo)(nil)

// EnsureIndexes creates the unique email index and the TTL index that
// removes unverified accounts once their code expires.
func (r *MongoUserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "verificationCodeExpiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("verification_code_ttl"),
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *MongoUserRepo) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.Email = normalizeEmail(u.Email)
	u.ID = uuid.NewString()
	u.Version = 1
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := r.users.InsertOne(ctx, toDocument(*u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

func (r *MongoUserRepo) findOne(ctx context.Context, filter bson.M) (model.User, error) {
	var d userDocument
	if err := r.users.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	return d.toModel(), nil
}

func (r *MongoUserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findOne(ctx, bson.M{"email": normalizeEmail(email)})
}

func (r *MongoUserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepo) List(ctx context.Context) ([]model.User, error) {
	cur, err := r.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

// Update retries the read-modify-write until the version filter matches or
// maxUpdateAttempts is reached. fn may run more than once.
func (r *MongoUserRepo) Update(ctx context.Context, email string, fn func(*model.User) error) (model.User, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		cur, err := r.GetByEmail(ctx, email)
		if err != nil {
			return model.User{}, err
		}
		next := cloneUser(cur)
		if err := fn(&next); err != nil {
			return cur, err
		}
		next.ID, next.Email, next.CreatedAt = cur.ID, cur.Email, cur.CreatedAt
		next.Version = cur.Version + 1
		next.UpdatedAt = time.Now().UTC()

		res, err := r.users.ReplaceOne(ctx, bson.M{"_id": cur.ID, "version": cur.Version}, toDocument(next))
		if err != nil {
			return model.User{}, fmt.Errorf("replace user: %w", err)
		}
		if res.MatchedCount == 1 {
			return next, nil
		}
	}
	return model.User{}, ErrConflict
}

func (r *MongoUserRepo) Delete(ctx context.Context, email string) error {
	res, err := r.users.DeleteOne(ctx, bson.M{"email": normalizeEmail(email)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUserRepo) DeletePending(ctx context.Context, id string) error {
	res, err := r.users.DeleteOne(ctx, bson.M{"_id": id, "isVerified": false})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateFirstAdmin claims a guard document with a fixed _id before
// inserting the admin. The unique _id makes the claim atomic across
// processes; the guard is released if the user insert fails.
func (r *MongoUserRepo) CreateFirstAdmin(ctx context.Context, u *model.User) error {
	n, err := r.users.CountDocuments(ctx, bson.M{"role": string(model.RoleAdmin)})
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrAdminExists
	}
	guard := bson.M{"_id": firstAdminGuardID, "email": u.Email, "createdAt": time.Now().UTC()}
	if _, err := r.bootstrap.InsertOne(ctx, guard); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAdminExists
		}
		return err
	}
	if err := r.Create(ctx, u); err != nil {
		_, _ = r.bootstrap.DeleteOne(ctx, bson.M{"_id": firstAdminGuardID})
		return err
	}
	return nil
}

// SweepExpired complements the TTL monitor, which only runs about once a
// minute.
func (r *MongoUserRepo) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.users.DeleteMany(ctx, bson.M{
		"isVerified":                false,
		"verificationCodeExpiresAt": bson.M{"$lte": now.UTC()},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoUserRepo) Ping(ctx context.Context) error {
	return r.users.Database().Client().Ping(ctx, nil)
}
