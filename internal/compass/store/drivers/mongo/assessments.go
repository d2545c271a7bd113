package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/compass/internal/compass/domain"
	"github.com/aussiebroadwan/compass/internal/compass/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type assessmentsRepo struct {
	coll *mongo.Collection
}

type assessmentDoc struct {
	ID              bson.ObjectID       `bson:"_id"`
	OwnerID         string              `bson:"owner_id"`
	CompanyName     string              `bson:"company_name"`
	CompanyIndustry *string             `bson:"company_industry"`
	CompanySize     *string             `bson:"company_size"`
	InviteToken     string              `bson:"invite_token"`
	InviteExpiresAt time.Time           `bson:"invite_expires_at"`
	Status          *string             `bson:"status"`
	ExecProfile     *domain.ExecProfile `bson:"exec_profile,omitempty"`
	Selections      any                 `bson:"selections,omitempty"`
	Scores          any                 `bson:"scores,omitempty"`
	Responses       any                 `bson:"responses,omitempty"`
	Progress        *domain.Progress    `bson:"progress,omitempty"`
	CreatedAt       time.Time           `bson:"created_at"`
	UpdatedAt       time.Time           `bson:"updated_at"`
}

func (d assessmentDoc) domain() (domain.Assessment, error) {
	a := domain.Assessment{
		ID:              d.ID.Hex(),
		OwnerID:         d.OwnerID,
		CompanyName:     d.CompanyName,
		CompanyIndustry: d.CompanyIndustry,
		CompanySize:     d.CompanySize,
		InviteToken:     d.InviteToken,
		InviteExpiresAt: d.InviteExpiresAt.UTC(),
		Status:          domain.StatusActive,
		ExecProfile:     d.ExecProfile,
		Progress:        d.Progress,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
	// Only a missing key defaults to active; a stored "" stays closed.
	if d.Status != nil {
		a.Status = *d.Status
	}
	if a.Progress != nil {
		a.Progress.UpdatedAt = a.Progress.UpdatedAt.UTC()
	}

	var err error
	if a.Selections, err = payloadFromBSON(d.Selections); err != nil {
		return domain.Assessment{}, fmt.Errorf("mongo: decode selections of %s: %w", a.ID, err)
	}
	if a.Scores, err = payloadFromBSON(d.Scores); err != nil {
		return domain.Assessment{}, fmt.Errorf("mongo: decode scores of %s: %w", a.ID, err)
	}
	if a.Responses, err = payloadFromBSON(d.Responses); err != nil {
		return domain.Assessment{}, fmt.Errorf("mongo: decode responses of %s: %w", a.ID, err)
	}
	return a, nil
}

// payloadToBSON stores the caller's JSON text as a string, so it reads back
// byte for byte. Parsing it into BSON would reinterpret $-keys such as
// $numberLong and round integers beyond int64.
func payloadToBSON(p domain.Payload) any {
	if len(p) == 0 {
		return nil
	}
	return string(p)
}

// payloadFromBSON accepts the string form and, for records written by the
// earlier deployment, embedded documents and arrays.
func payloadFromBSON(v any) (domain.Payload, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case string:
		return domain.Payload(v), nil
	default:
		b, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: v}}, false, false)
		if err != nil {
			return nil, err
		}
		var wrapped struct {
			V json.RawMessage `json:"v"`
		}
		if err := json.Unmarshal(b, &wrapped); err != nil {
			return nil, err
		}
		return domain.Payload(wrapped.V), nil
	}
}

func (r *assessmentsRepo) CreateAssessment(ctx context.Context, a domain.Assessment) (domain.Assessment, error) {
	doc := assessmentDoc{
		ID:              bson.NewObjectID(),
		OwnerID:         a.OwnerID,
		CompanyName:     a.CompanyName,
		CompanyIndustry: a.CompanyIndustry,
		CompanySize:     a.CompanySize,
		InviteToken:     a.InviteToken,
		InviteExpiresAt: a.InviteExpiresAt.UTC(),
		Status:          &a.Status,
		ExecProfile:     a.ExecProfile,
		Progress:        a.Progress,
		Selections:      payloadToBSON(a.Selections),
		Scores:          payloadToBSON(a.Scores),
		Responses:       payloadToBSON(a.Responses),
		CreatedAt:       a.CreatedAt.UTC().Truncate(time.Millisecond),
		UpdatedAt:       a.UpdatedAt.UTC().Truncate(time.Millisecond),
	}
	if a.ID != "" {
		oid, err := parseID(a.ID)
		if err != nil {
			return domain.Assessment{}, err
		}
		doc.ID = oid
	}
	if a.CreatedAt.IsZero() {
		doc.CreatedAt = now()
	}
	if a.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return domain.Assessment{}, mapDuplicate(err)
	}
	return doc.domain()
}

func (r *assessmentsRepo) GetAssessmentByID(ctx context.Context, id string) (domain.Assessment, error) {
	oid, err := parseID(id)
	if err != nil {
		return domain.Assessment{}, err
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *assessmentsRepo) GetAssessmentByInviteToken(ctx context.Context, token string) (domain.Assessment, error) {
	if token == "" {
		return domain.Assessment{}, store.ErrNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "invite_token", Value: token}})
}

func (r *assessmentsRepo) findOne(ctx context.Context, filter bson.D) (domain.Assessment, error) {
	var doc assessmentDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return domain.Assessment{}, mapNotFound(err)
	}
	return doc.domain()
}

func (r *assessmentsRepo) ListAssessmentsByOwner(ctx context.Context, ownerID string) ([]domain.Assessment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := r.coll.Find(ctx, bson.D{{Key: "owner_id", Value: ownerID}}, opts)
	if err != nil {
		return nil, err
	}

	var docs []assessmentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]domain.Assessment, 0, len(docs))
	for _, d := range docs {
		a, err := d.domain()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// UpdateAssessment issues one pipeline update so the updated_at clamp is
// computed from the stored value in the same atomic write.
func (r *assessmentsRepo) UpdateAssessment(ctx context.Context, f store.AssessmentFilter, c domain.AssessmentChanges) error {
	filter, err := filterDoc(f)
	if err != nil {
		return err
	}
	set, err := setDoc(c)
	if err != nil {
		return err
	}

	stamp := c.UpdatedAt.UTC().Truncate(time.Millisecond)
	set = append(set, bson.E{Key: "updated_at", Value: bson.D{{Key: "$max", Value: bson.A{
		stamp,
		bson.D{{Key: "$add", Value: bson.A{"$updated_at", domain.MinUpdateStep.Milliseconds()}}},
	}}}})

	res, err := r.coll.UpdateOne(ctx, filter, mongo.Pipeline{{{Key: "$set", Value: set}}})
	if err != nil {
		return mapDuplicate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func filterDoc(f store.AssessmentFilter) (bson.D, error) {
	if f.ID == "" && f.InviteToken == "" {
		return nil, errors.New("mongo: update filter needs an id or invite token")
	}

	var filter bson.D
	if f.ID != "" {
		oid, err := parseID(f.ID)
		if err != nil {
			return nil, err
		}
		filter = append(filter, bson.E{Key: "_id", Value: oid})
	}
	if f.OwnerID != "" {
		filter = append(filter, bson.E{Key: "owner_id", Value: f.OwnerID})
	}
	if f.InviteToken != "" {
		filter = append(filter, bson.E{Key: "invite_token", Value: f.InviteToken})
	}
	if !f.OpenAt.IsZero() {
		filter = append(filter,
			bson.E{Key: "status", Value: domain.StatusActive},
			bson.E{Key: "invite_expires_at", Value: bson.D{{Key: "$gte", Value: f.OpenAt.UTC()}}},
		)
	}
	return filter, nil
}

// literal keeps user values from being read as pipeline expressions.
func literal(v any) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}

func setDoc(c domain.AssessmentChanges) (bson.D, error) {
	var set bson.D

	text := func(key string, p domain.Patch[string]) {
		if v, ok := p.Value(); ok {
			set = append(set, bson.E{Key: key, Value: literal(v)})
		} else if p.IsClear() {
			set = append(set, bson.E{Key: key, Value: literal(nil)})
		}
	}
	text("status", c.Status)
	text("company_name", c.CompanyName)
	text("company_industry", c.CompanyIndustry)
	text("company_size", c.CompanySize)

	if v, ok := c.InviteExpiresAt.Value(); ok {
		set = append(set, bson.E{Key: "invite_expires_at", Value: v.UTC()})
	}
	if v, ok := c.ExecProfile.Value(); ok {
		set = append(set, bson.E{Key: "exec_profile", Value: literal(v)})
	}
	if v, ok := c.Progress.Value(); ok {
		v.UpdatedAt = v.UpdatedAt.UTC()
		set = append(set, bson.E{Key: "progress", Value: literal(v)})
	}

	for _, f := range []struct {
		key string
		p   domain.Patch[domain.Payload]
	}{
		{"selections", c.Selections},
		{"scores", c.Scores},
		{"responses", c.Responses},
	} {
		if v, ok := f.p.Value(); ok {
			set = append(set, bson.E{Key: f.key, Value: literal(payloadToBSON(v))})
		} else if f.p.IsClear() {
			set = append(set, bson.E{Key: f.key, Value: literal(nil)})
		}
	}

	return set, nil
}
