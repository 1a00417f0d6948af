package score

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentscout-engine/internal/config"
	"rentscout-engine/internal/domain"
)

// testCatalog mirrors the shipped default catalog closely enough to
// exercise every rule path.
func testCatalog() config.Scoring {
	return config.Scoring{
		MaxTotal:          110,
		PriceRejectFactor: 1.5,
		Budget: map[string]int{
			"雅房": 10000,
			"套房": 15000,
		},
		DefaultRoomType: "套房",
		RoomTypes: []config.KeywordRule{
			{Name: "雅房", Any: []string{"雅房"}},
			{Name: "套房", Any: []string{"套房"}},
		},
		Required: []config.Rule{
			{Name: "變頻冷氣", Weight: 10, Any: []string{"變頻冷氣", "冷氣", "空調"}},
			{Name: "冰箱", Weight: 10, Any: []string{"冰箱", "電冰箱"}},
			{Name: "對外窗", Weight: 10, Any: []string{"對外窗", "採光", "通風", "窗戶"}},
			{Name: "洗衣機", Weight: 10, Any: []string{"洗衣機", "洗脫烘"}},
		},
		PreferredCap: 15,
		Preferred: []config.Rule{
			{Name: "露台", Weight: 8, Any: []string{"露台", "陽台"}},
			{Name: "乾淨整潔", Weight: 7, Any: []string{"乾淨", "整潔"}},
			{Name: "友善環境", Weight: 5, Any: []string{"友善", "室友"}},
		},
		DealBreakers: []config.KeywordRule{
			{Name: "無對外窗", Any: []string{"無對外窗", "無窗"}},
			{Name: "老舊壁癌", Any: []string{"壁癌", "漏水", "老舊"}},
			{Name: "隔音差", Any: []string{"隔音差", "吵雜"}},
		},
		StructureReject: []string{"頂樓加蓋", "地下室"},
		Location: config.Location{
			Cities:    []string{"台北市", "新北市"},
			Districts: []string{"大安區", "信義區", "板橋區"},
		},
		Pets: config.Pets{
			Friendly:   []string{"可養寵物", "寵物友善", "可養貓"},
			Prohibited: []string{"禁止寵物", "不可養寵物", "不允許寵物"},
			Reject:     []string{"禁止寵物", "不可養寵物"},
		},
	}
}

func newScorer() CatalogScorer {
	return CatalogScorer{Catalog: testCatalog()}
}

func TestScoreEndToEnd(t *testing.T) {
	s := newScorer()
	res := s.Score(domain.Listing{
		Title:   "温馨套房 變頻冷氣 冰箱 洗衣機 對外窗",
		Price:   14000,
		Address: "台北市大安區復興南路",
		Details: map[string]string{"寵物": "可養貓"},
	})

	require.False(t, res.Rejected())
	assert.Equal(t, 90, res.Total)
	assert.Equal(t, SuitabilityExcellent, res.Suitability)
	assert.Equal(t, 20, res.Breakdown[CategoryPrice].Score)
	assert.Equal(t, 40, res.Breakdown[CategoryFacilities].Score)
	assert.Equal(t, 20, res.Breakdown[CategoryLocation].Score)
	// 温馨 (simplified form) must not match the traditional catalog keywords
	assert.Equal(t, 0, res.Breakdown[CategoryPreferred].Score)
	assert.Equal(t, 10, res.Breakdown[CategoryPetPolicy].Score)
	assert.Contains(t, res.Advantages, "設備完善")
	assert.Contains(t, res.Advantages, "寵物友善")
	assert.Empty(t, res.Recommendations)
}

func TestDealBreakersCollectAllTriggers(t *testing.T) {
	s := newScorer()
	res := s.Score(domain.Listing{
		Title:       "便宜套房",
		Price:       9000,
		Description: "屋況有漏水 禁止寵物",
	})

	require.True(t, res.Rejected())
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, SuitabilityReject, res.Suitability)
	assert.Nil(t, res.Breakdown)
	assert.Equal(t, []string{"包含排除條件：老舊壁癌", "不允許寵物"}, res.Warnings)
}

func TestDealBreakerGate(t *testing.T) {
	tests := []struct {
		name    string
		listing domain.Listing
		want    []string
	}{
		{
			name:    "structure keyword",
			listing: domain.Listing{Title: "頂樓加蓋套房", Price: 8000},
			want:    []string{"房屋類型不符合需求"},
		},
		{
			name:    "price far over any budget",
			listing: domain.Listing{Title: "豪華套房", Price: 22501},
			want:    []string{"價格過高，超出合理範圍"},
		},
		{
			name:    "hard pet reject",
			listing: domain.Listing{Title: "套房", Price: 12000, Description: "不可養寵物"},
			want:    []string{"不允許寵物"},
		},
		{
			name:    "keyword rule names the rule",
			listing: domain.Listing{Title: "套房", Price: 12000, Facilities: []string{"無窗"}},
			want:    []string{"包含排除條件：無對外窗"},
		},
	}
	s := newScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Score(tt.listing)
			assert.Equal(t, tt.want, res.Warnings)
			assert.Equal(t, 0, res.Total)
		})
	}
}

func TestPriceTiers(t *testing.T) {
	// 套房 budget is 15000: <=12000 is the cheap tier, <=15000 in budget,
	// <=18000 slightly over, above that zero. The hard reject only starts
	// past 1.5x the highest budget.
	tests := []struct {
		price int
		want  int
	}{
		{11999, 25},
		{12000, 25},
		{12001, 20},
		{15000, 20},
		{15001, 10},
		{18000, 10},
		{18001, 0},
		{22500, 0},
	}
	s := newScorer()
	for _, tt := range tests {
		res := s.Score(domain.Listing{Title: "套房", Price: tt.price})
		require.False(t, res.Rejected(), "price %d", tt.price)
		assert.Equal(t, tt.want, res.Breakdown[CategoryPrice].Score, "price %d", tt.price)
	}
}

func TestPriceUnknown(t *testing.T) {
	s := newScorer()
	res := s.Score(domain.Listing{Title: "套房"})

	require.False(t, res.Rejected())
	price := res.Breakdown[CategoryPrice]
	assert.Equal(t, 0, price.Score)
	assert.Equal(t, "價格資訊不明確", price.Rationale)
}

func TestPriceUsesRoomTypeBudget(t *testing.T) {
	s := newScorer()

	// 11000 is over the 雅房 budget of 10000 but within the default 套房 one.
	res := s.Score(domain.Listing{Title: "雅房出租", Price: 11000})
	assert.Equal(t, 10, res.Breakdown[CategoryPrice].Score)
	assert.Equal(t, "雅房", s.RoomType(domain.Listing{Title: "雅房出租"}))

	res = s.Score(domain.Listing{Title: "出租", Price: 11000})
	assert.Equal(t, 20, res.Breakdown[CategoryPrice].Score)
}

func TestFacilitiesAdditive(t *testing.T) {
	s := newScorer()
	res := s.Score(domain.Listing{
		Title:      "套房",
		Price:      12000,
		Facilities: []string{"冷氣", "冰箱"},
	})

	fac := res.Breakdown[CategoryFacilities]
	assert.Equal(t, 20, fac.Score)
	assert.Equal(t, 40, fac.Max)
	assert.Equal(t, []string{"變頻冷氣", "冰箱"}, fac.Matched)
	assert.Equal(t, []string{"對外窗", "洗衣機"}, fac.Missing)
	assert.Contains(t, res.Recommendations, "需確認設備：對外窗、洗衣機")
}

func TestLocation(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    int
	}{
		{"city and district", "台北市大安區復興南路一段", 20},
		{"city only", "台北市北投區", 15},
		{"other city", "桃園市中壢區", 0},
		{"district without preferred city", "基隆市大安區", 0},
		{"empty address", "", 0},
	}
	s := newScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Score(domain.Listing{Title: "套房", Price: 12000, Address: tt.address})
			assert.Equal(t, tt.want, res.Breakdown[CategoryLocation].Score)
		})
	}
}

func TestLocationIgnoresDescription(t *testing.T) {
	s := newScorer()
	res := s.Score(domain.Listing{
		Title:       "套房",
		Price:       12000,
		Description: "近台北市大安區捷運站",
		Address:     "桃園市中壢區",
	})
	assert.Equal(t, 0, res.Breakdown[CategoryLocation].Score)
}

func TestPreferredCapped(t *testing.T) {
	s := newScorer()
	res := s.Score(domain.Listing{
		Title:       "套房",
		Price:       12000,
		Description: "有陽台 乾淨 室友友善", // raw weights 8+7+5 = 20
	})

	pref := res.Breakdown[CategoryPreferred]
	assert.Equal(t, 15, pref.Score)
	assert.Equal(t, []string{"露台", "乾淨整潔", "友善環境"}, pref.Matched)
}

func TestPetPenaltyShiftsBand(t *testing.T) {
	// Fixture catalog tuned so the listing lands exactly on 95 with a
	// neutral pet policy; the soft prohibition keyword then drops it a band.
	cat := testCatalog()
	cat.PreferredCap = 10
	cat.Preferred = []config.Rule{{Name: "採光佳", Weight: 10, Any: []string{"明亮"}}}
	cat.Pets.Reject = nil
	s := CatalogScorer{Catalog: cat}

	base := domain.Listing{
		Title:      "明亮套房",
		Price:      12000,
		Address:    "台北市大安區",
		Facilities: []string{"冷氣", "冰箱", "對外窗", "洗衣機"},
	}
	res := s.Score(base)
	require.Equal(t, 95, res.Total)
	require.Equal(t, SuitabilityExcellent, res.Suitability)

	base.Description = "不允許寵物"
	res = s.Score(base)
	require.False(t, res.Rejected())
	assert.Equal(t, 75, res.Total)
	assert.Equal(t, SuitabilityGood, res.Suitability)
	assert.Equal(t, -20, res.Breakdown[CategoryPetPolicy].Score)
}

func TestTotalFloorsAtZero(t *testing.T) {
	cat := testCatalog()
	cat.Pets.Reject = nil
	s := CatalogScorer{Catalog: cat}

	res := s.Score(domain.Listing{Title: "套房", Description: "不允許寵物"})
	require.False(t, res.Rejected())
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, SuitabilityReject, res.Suitability)
}

func TestSuitabilityBands(t *testing.T) {
	tests := []struct {
		total int
		want  Suitability
	}{
		{110, SuitabilityExcellent},
		{90, SuitabilityExcellent},
		{89, SuitabilityGreat},
		{80, SuitabilityGreat},
		{79, SuitabilityGood},
		{70, SuitabilityGood},
		{69, SuitabilityFair},
		{60, SuitabilityFair},
		{59, SuitabilityReview},
		{40, SuitabilityReview},
		{39, SuitabilityReject},
		{0, SuitabilityReject},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SuitabilityFor(tt.total), "total %d", tt.total)
	}
}

func TestScoreIdempotent(t *testing.T) {
	s := newScorer()
	l := domain.Listing{
		Title:      "乾淨套房 陽台",
		Price:      13000,
		Address:    "新北市板橋區",
		Facilities: []string{"冷氣", "洗衣機"},
		Details:    map[string]string{"樓層": "3F", "坪數": "8坪"},
	}

	first := s.Score(l)
	second := s.Score(l)
	assert.True(t, reflect.DeepEqual(first, second))
}

func TestAdvantagesDefault(t *testing.T) {
	s := newScorer()
	res := s.Score(domain.Listing{Title: "出租", Price: 15001, Description: "可養貓"})

	// pet bonus keeps this off the default text
	assert.Equal(t, "寵物友善", res.Advantages)

	res = s.Score(domain.Listing{Title: "出租", Price: 15001})
	assert.Equal(t, "基本條件符合", res.Advantages)
	assert.Contains(t, res.Recommendations, "可嘗試議價")
	assert.Contains(t, res.Recommendations, "需確認寵物政策")
}
