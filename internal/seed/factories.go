// Package seed creates demo data for development databases.
package seed

import (
	"fmt"
	"strings"
	"time"

	"audiovault/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

var (
	brands = map[string][]string{
		"Receiver":   {"Marantz", "Pioneer", "Sansui", "Kenwood", "Technics"},
		"Turntable":  {"Technics", "Dual", "Thorens", "Garrard", "Rega"},
		"Speaker":    {"JBL", "Klipsch", "Advent", "Bose", "KLH"},
		"Tape Deck":  {"Nakamichi", "Akai", "TEAC", "Sony", "Revox"},
		"Amplifier":  {"McIntosh", "NAD", "Luxman", "Sansui", "Yamaha"},
		"CD Player":  {"Sony", "Philips", "Denon", "Rotel", "Marantz"},
		"Headphones": {"Koss", "Sennheiser", "Stax", "AKG", "Beyerdynamic"},
	}
	conditions = []string{"Mint", "Excellent", "Good", "Fair", "For Parts"}
)

// Factory builds domain entities and persists them.
type Factory struct {
	db   *gorm.DB
	hash string
}

// NewFactory creates a Factory bound to db. With skipBcrypt the stored
// password hash uses the minimum cost.
func NewFactory(db *gorm.DB, skipBcrypt bool) (*Factory, error) {
	cost := bcrypt.DefaultCost
	if skipBcrypt {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, err
	}
	return &Factory{db: db, hash: string(hash)}, nil
}

// CreateUser persists a user with a fake identity.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	name := strings.ToLower(gofakeit.Username())
	user := &models.User{
		Username:           fmt.Sprintf("%s%d", name, gofakeit.Number(100, 999)),
		Email:              fmt.Sprintf("%s.%s@example.com", name, gofakeit.LetterN(6)),
		Password:           f.hash,
		Bio:                gofakeit.Sentence(10),
		IsCollectionPublic: gofakeit.Number(1, 10) > 2,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildItem constructs an AudioItem for owner without saving it.
func (f *Factory) BuildItem(owner *models.User) *models.AudioItem {
	itemType := gofakeit.RandomMapKey(brands).(string)
	item := &models.AudioItem{
		UserID:            owner.ID,
		Make:              gofakeit.RandomString(brands[itemType]),
		Model:             fmt.Sprintf("%s-%d", strings.ToUpper(gofakeit.LetterN(2)), gofakeit.Number(100, 9999)),
		ItemType:          itemType,
		Condition:         gofakeit.RandomString(conditions),
		IsFullyFunctional: gofakeit.Bool(),
		Notes:             gofakeit.Sentence(12),
		Photos:            []string{fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID())},
		Privacy:           models.PrivacyPublic,
		CreatedAt:         gofakeit.DateRange(time.Now().AddDate(-1, 0, 0), time.Now()),
	}
	if gofakeit.Number(1, 5) == 1 {
		item.Privacy = models.PrivacyPrivate
	}
	if gofakeit.Bool() {
		price := float64(gofakeit.Number(50, 2500))
		item.IsForSale = true
		item.AskingPrice = &price
		item.Currency = "USD"
	}
	return item
}

// CreateItem persists a fake AudioItem owned by owner.
func (f *Factory) CreateItem(owner *models.User, overrides ...func(*models.AudioItem)) (*models.AudioItem, error) {
	item := f.BuildItem(owner)
	for _, override := range overrides {
		override(item)
	}
	if err := f.db.Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// CreateFind persists a fake WildFind with a plausible analysis payload.
func (f *Factory) CreateFind(owner *models.User) (*models.WildFind, error) {
	itemType := gofakeit.RandomMapKey(brands).(string)
	brand := gofakeit.RandomString(brands[itemType])
	model := fmt.Sprintf("%s-%d", strings.ToUpper(gofakeit.LetterN(2)), gofakeit.Number(100, 999))
	low := gofakeit.Number(20, 400)

	find := &models.WildFind{
		UserID:    owner.ID,
		FindType:  models.FindTypeWild,
		ImageURL:  fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID()),
		Notes:     gofakeit.Sentence(8),
		CreatedAt: gofakeit.DateRange(time.Now().AddDate(0, -6, 0), time.Now()),
	}
	analysis := fmt.Sprintf(`{"identification":{"make":%q,"model":%q,"itemType":%q},"estimatedValue":{"low":%d,"high":%d,"currency":"USD"}}`,
		brand, model, itemType, low, low*2)

	if gofakeit.Number(1, 3) == 1 {
		price := float64(low + gofakeit.Number(0, 300))
		find.FindType = models.FindTypeAd
		find.ListingURL = gofakeit.URL()
		find.AskingPrice = &price
		analysis = fmt.Sprintf(`{"listing":{"title":%q},"identification":{"make":%q,"model":%q},"verdict":%q}`,
			brand+" "+model+" "+itemType, brand, model, gofakeit.RandomString([]string{"fair", "overpriced", "bargain"}))
	}
	find.Analysis = datatypes.JSON(analysis)

	if err := f.db.Create(find).Error; err != nil {
		return nil, err
	}
	return find, nil
}
