package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/herd/internal/apperr"
	"github.com/mamadbah2/herd/internal/domain/dates"
	"github.com/mamadbah2/herd/internal/domain/models"
	"github.com/mamadbah2/herd/internal/repository"
)

var _ repository.Store = (*MongoDBRepository)(nil)

// MongoDBRepository implements repository.Store on MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewMongoDBRepository connects, pings and ensures indexes. Dates that were
// not stored as BSON datetimes are read through clock.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, clock *dates.Normalizer, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = dates.NewNormalizer(time.UTC, logger)
	}

	clientOptions := options.Client().ApplyURI(uri).SetRegistry(newRegistry(clock))
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}
	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		repository.AnimalsCollection: {
			{Keys: bson.D{{Key: "tag", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		repository.HealthCollection: {
			{Keys: bson.D{{Key: "animalId", Value: 1}}},
			{Keys: bson.D{{Key: "date", Value: -1}}},
		},
		repository.ProductionCollection: {
			{Keys: bson.D{{Key: "animalId", Value: 1}}},
			{Keys: bson.D{{Key: "date", Value: -1}}},
		},
		repository.UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for coll, idx := range indexes {
		if _, err := r.db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	r.logger.Debug("mongodb indexes ensured")
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) coll(name string) *mongo.Collection {
	return r.db.Collection(name)
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

// translate maps driver errors onto the application taxonomy.
func translate(op, resource, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.NotFound(resource, id)
	case mongo.IsDuplicateKeyError(err):
		return apperr.Conflict(fmt.Sprintf("%s already exists", resource))
	default:
		return apperr.Unavailable(op, err)
	}
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, id string) (T, error) {
	var out T
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	return out, err
}

// updateAndFetch applies update and returns the document after the change.
// An empty update only reads the document.
func updateAndFetch[T any](ctx context.Context, coll *mongo.Collection, id string, update bson.M) (T, error) {
	if len(update) == 0 {
		return findOne[T](ctx, coll, id)
	}
	var out T
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&out)
	return out, err
}

func deleteOne(ctx context.Context, coll *mongo.Collection, id string) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// setter accumulates $set and $unset fields for a partial update.
type setter struct {
	set   bson.M
	unset bson.M
}

func newSetter() *setter {
	return &setter{set: bson.M{}, unset: bson.M{}}
}

func setIf[T any](s *setter, field string, value *T) {
	if value != nil {
		s.set[field] = *value
	}
}

func (s *setter) update() bson.M {
	update := bson.M{}
	if len(s.set) > 0 {
		update["$set"] = s.set
	}
	if len(s.unset) > 0 {
		update["$unset"] = s.unset
	}
	return update
}

// ListAnimals returns every animal.
func (r *MongoDBRepository) ListAnimals(ctx context.Context) ([]models.Animal, error) {
	out, err := findAll[models.Animal](ctx, r.coll(repository.AnimalsCollection), bson.M{})
	if err != nil {
		return nil, apperr.Unavailable("list animals", err)
	}
	return out, nil
}

// GetAnimal returns one animal.
func (r *MongoDBRepository) GetAnimal(ctx context.Context, id string) (models.Animal, error) {
	out, err := findOne[models.Animal](ctx, r.coll(repository.AnimalsCollection), id)
	return out, translate("get animal", "animal", id, err)
}

// CreateAnimal inserts the animal with a generated id when missing.
func (r *MongoDBRepository) CreateAnimal(ctx context.Context, animal models.Animal) (models.Animal, error) {
	if animal.ID == "" {
		animal.ID = newID()
	}
	if _, err := r.coll(repository.AnimalsCollection).InsertOne(ctx, animal); err != nil {
		return models.Animal{}, translate("create animal", "animal", animal.ID, err)
	}
	return animal, nil
}

// UpdateAnimal applies a partial update.
func (r *MongoDBRepository) UpdateAnimal(ctx context.Context, id string, patch models.AnimalPatch) (models.Animal, error) {
	out, err := updateAndFetch[models.Animal](ctx, r.coll(repository.AnimalsCollection), id, animalUpdate(patch))
	return out, translate("update animal", "animal", id, err)
}

func animalUpdate(patch models.AnimalPatch) bson.M {
	s := newSetter()
	setIf(s, "tag", patch.Tag)
	setIf(s, "name", patch.Name)
	setIf(s, "type", patch.Type)
	setIf(s, "breed", patch.Breed)
	setIf(s, "birthDate", patch.BirthDate)
	setIf(s, "gender", patch.Gender)
	setIf(s, "status", patch.Status)
	setIf(s, "weight", patch.Weight)
	setIf(s, "purchaseDate", patch.PurchaseDate)
	setIf(s, "purchasePrice", patch.PurchasePrice)
	setIf(s, "notes", patch.Notes)
	setIf(s, "imageUrl", patch.ImageURL)
	return s.update()
}

// DeleteAnimal removes one animal.
func (r *MongoDBRepository) DeleteAnimal(ctx context.Context, id string) error {
	return translate("delete animal", "animal", id, deleteOne(ctx, r.coll(repository.AnimalsCollection), id))
}

// ListHealthRecords returns every health record.
func (r *MongoDBRepository) ListHealthRecords(ctx context.Context) ([]models.HealthRecord, error) {
	out, err := findAll[models.HealthRecord](ctx, r.coll(repository.HealthCollection), bson.M{})
	if err != nil {
		return nil, apperr.Unavailable("list health records", err)
	}
	return out, nil
}

// ListHealthRecordsByAnimal filters on animalId.
func (r *MongoDBRepository) ListHealthRecordsByAnimal(ctx context.Context, animalID string) ([]models.HealthRecord, error) {
	out, err := findAll[models.HealthRecord](ctx, r.coll(repository.HealthCollection), bson.M{"animalId": animalID})
	if err != nil {
		return nil, apperr.Unavailable("list health records", err)
	}
	return out, nil
}

// RecentHealthRecords returns the newest records first.
func (r *MongoDBRepository) RecentHealthRecords(ctx context.Context, limit int) ([]models.HealthRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	out, err := findAll[models.HealthRecord](ctx, r.coll(repository.HealthCollection), bson.M{}, opts)
	if err != nil {
		return nil, apperr.Unavailable("list recent health records", err)
	}
	return out, nil
}

// GetHealthRecord returns one health record.
func (r *MongoDBRepository) GetHealthRecord(ctx context.Context, id string) (models.HealthRecord, error) {
	out, err := findOne[models.HealthRecord](ctx, r.coll(repository.HealthCollection), id)
	return out, translate("get health record", "health record", id, err)
}

// CreateHealthRecord inserts the record.
func (r *MongoDBRepository) CreateHealthRecord(ctx context.Context, record models.HealthRecord) (models.HealthRecord, error) {
	if record.ID == "" {
		record.ID = newID()
	}
	if _, err := r.coll(repository.HealthCollection).InsertOne(ctx, record); err != nil {
		return models.HealthRecord{}, translate("create health record", "health record", record.ID, err)
	}
	return record, nil
}

// UpdateHealthRecord applies a partial update; ClearNextDose unsets the field.
func (r *MongoDBRepository) UpdateHealthRecord(ctx context.Context, id string, patch models.HealthRecordPatch) (models.HealthRecord, error) {
	out, err := updateAndFetch[models.HealthRecord](ctx, r.coll(repository.HealthCollection), id, healthUpdate(patch))
	return out, translate("update health record", "health record", id, err)
}

func healthUpdate(patch models.HealthRecordPatch) bson.M {
	s := newSetter()
	setIf(s, "animalId", patch.AnimalID)
	setIf(s, "date", patch.Date)
	setIf(s, "type", patch.Category)
	setIf(s, "description", patch.Description)
	setIf(s, "medicine", patch.Medicine)
	setIf(s, "dosage", patch.Dosage)
	setIf(s, "veterinarian", patch.Veterinarian)
	setIf(s, "cost", patch.Cost)
	setIf(s, "notes", patch.Notes)
	setIf(s, "repeatEveryDays", patch.RepeatEveryDays)
	setIf(s, "reminderAdvanceDays", patch.ReminderAdvanceDays)
	setIf(s, "reminderEnabled", patch.ReminderEnabled)
	if patch.ClearNextDose {
		s.unset["nextDoseDate"] = ""
	} else {
		setIf(s, "nextDoseDate", patch.NextDoseDate)
	}
	return s.update()
}

// DeleteHealthRecord removes one record.
func (r *MongoDBRepository) DeleteHealthRecord(ctx context.Context, id string) error {
	return translate("delete health record", "health record", id, deleteOne(ctx, r.coll(repository.HealthCollection), id))
}

// DeleteHealthRecordsByAnimal removes every record of one animal.
func (r *MongoDBRepository) DeleteHealthRecordsByAnimal(ctx context.Context, animalID string) (int64, error) {
	res, err := r.coll(repository.HealthCollection).DeleteMany(ctx, bson.M{"animalId": animalID})
	if err != nil {
		return 0, apperr.Unavailable("delete health records", err)
	}
	return res.DeletedCount, nil
}

// ListProductionRecords returns every production record.
func (r *MongoDBRepository) ListProductionRecords(ctx context.Context) ([]models.ProductionRecord, error) {
	out, err := findAll[models.ProductionRecord](ctx, r.coll(repository.ProductionCollection), bson.M{})
	if err != nil {
		return nil, apperr.Unavailable("list production records", err)
	}
	return out, nil
}

// ListProductionRecordsByAnimal filters on animalId.
func (r *MongoDBRepository) ListProductionRecordsByAnimal(ctx context.Context, animalID string) ([]models.ProductionRecord, error) {
	out, err := findAll[models.ProductionRecord](ctx, r.coll(repository.ProductionCollection), bson.M{"animalId": animalID})
	if err != nil {
		return nil, apperr.Unavailable("list production records", err)
	}
	return out, nil
}

// GetProductionRecord returns one production record.
func (r *MongoDBRepository) GetProductionRecord(ctx context.Context, id string) (models.ProductionRecord, error) {
	out, err := findOne[models.ProductionRecord](ctx, r.coll(repository.ProductionCollection), id)
	return out, translate("get production record", "production record", id, err)
}

// CreateProductionRecord inserts the record.
func (r *MongoDBRepository) CreateProductionRecord(ctx context.Context, record models.ProductionRecord) (models.ProductionRecord, error) {
	if record.ID == "" {
		record.ID = newID()
	}
	if _, err := r.coll(repository.ProductionCollection).InsertOne(ctx, record); err != nil {
		return models.ProductionRecord{}, translate("create production record", "production record", record.ID, err)
	}
	return record, nil
}

// UpdateProductionRecord applies a partial update.
func (r *MongoDBRepository) UpdateProductionRecord(ctx context.Context, id string, patch models.ProductionRecordPatch) (models.ProductionRecord, error) {
	out, err := updateAndFetch[models.ProductionRecord](ctx, r.coll(repository.ProductionCollection), id, productionUpdate(patch))
	return out, translate("update production record", "production record", id, err)
}

func productionUpdate(patch models.ProductionRecordPatch) bson.M {
	s := newSetter()
	setIf(s, "animalId", patch.AnimalID)
	setIf(s, "date", patch.Date)
	setIf(s, "type", patch.Category)
	setIf(s, "quantity", patch.Quantity)
	setIf(s, "quality", patch.Quality)
	setIf(s, "notes", patch.Notes)
	setIf(s, "shift", patch.Shift)
	setIf(s, "milkingLocation", patch.Location)
	return s.update()
}

// DeleteProductionRecord removes one record.
func (r *MongoDBRepository) DeleteProductionRecord(ctx context.Context, id string) error {
	return translate("delete production record", "production record", id, deleteOne(ctx, r.coll(repository.ProductionCollection), id))
}

// DeleteProductionRecordsByAnimal removes every record of one animal.
func (r *MongoDBRepository) DeleteProductionRecordsByAnimal(ctx context.Context, animalID string) (int64, error) {
	res, err := r.coll(repository.ProductionCollection).DeleteMany(ctx, bson.M{"animalId": animalID})
	if err != nil {
		return 0, apperr.Unavailable("delete production records", err)
	}
	return res.DeletedCount, nil
}

// ListGenealogies returns every genealogy document.
func (r *MongoDBRepository) ListGenealogies(ctx context.Context) ([]models.Genealogy, error) {
	out, err := findAll[models.Genealogy](ctx, r.coll(repository.GenealogyCollection), bson.M{})
	if err != nil {
		return nil, apperr.Unavailable("list genealogy", err)
	}
	return out, nil
}

// GetGenealogy returns the genealogy keyed by animal id.
func (r *MongoDBRepository) GetGenealogy(ctx context.Context, animalID string) (models.Genealogy, error) {
	out, err := findOne[models.Genealogy](ctx, r.coll(repository.GenealogyCollection), animalID)
	return out, translate("get genealogy", "genealogy", animalID, err)
}

// UpsertGenealogy replaces the document keyed by animal id.
func (r *MongoDBRepository) UpsertGenealogy(ctx context.Context, g models.Genealogy) (models.Genealogy, error) {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll(repository.GenealogyCollection).ReplaceOne(ctx, bson.M{"_id": g.AnimalID}, g, opts); err != nil {
		return models.Genealogy{}, apperr.Unavailable("save genealogy", err)
	}
	return g, nil
}

// DeleteGenealogy removes the genealogy of one animal; a missing document is not an error.
func (r *MongoDBRepository) DeleteGenealogy(ctx context.Context, animalID string) error {
	if _, err := r.coll(repository.GenealogyCollection).DeleteOne(ctx, bson.M{"_id": animalID}); err != nil {
		return apperr.Unavailable("delete genealogy", err)
	}
	return nil
}

// GetUser returns a user by id.
func (r *MongoDBRepository) GetUser(ctx context.Context, id string) (models.User, error) {
	out, err := findOne[models.User](ctx, r.coll(repository.UsersCollection), id)
	return out, translate("get user", "user", id, err)
}

// GetUserByEmail returns a user by email; emails are stored lower-cased.
func (r *MongoDBRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var out models.User
	err := r.coll(repository.UsersCollection).FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&out)
	return out, translate("get user", "user", email, err)
}

// CreateUser inserts a user profile.
func (r *MongoDBRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == "" {
		user.ID = newID()
	}
	user.Email = strings.ToLower(user.Email)
	if _, err := r.coll(repository.UsersCollection).InsertOne(ctx, user); err != nil {
		return models.User{}, translate("create user", "user", user.Email, err)
	}
	return user, nil
}

// UpdateUser replaces a user profile.
func (r *MongoDBRepository) UpdateUser(ctx context.Context, user models.User) error {
	res, err := r.coll(repository.UsersCollection).ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return apperr.Unavailable("update user", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("user", user.ID)
	}
	return nil
}

// SaveDashboardSnapshot archives a dashboard snapshot.
func (r *MongoDBRepository) SaveDashboardSnapshot(ctx context.Context, snapshot models.DashboardSnapshot) error {
	_, err := r.coll(repository.SnapshotsCollection).InsertOne(ctx, snapshot)
	if err != nil {
		return fmt.Errorf("failed to insert dashboard snapshot: %w", err)
	}
	return nil
}
