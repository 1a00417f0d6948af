package notion

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"rentscout-engine/internal/domain"
	"rentscout-engine/internal/score"
)

// Status values for the 看房狀態 select column.
const (
	StatusNew       = "未聯繫"
	StatusContacted = "已聯繫"
	StatusViewed    = "已看房"
	StatusSigned    = "已簽約"
	StatusRejected  = "不適合"
)

var (
	cityRe     = regexp.MustCompile(`(台北市|新北市|桃園市|台中市|台南市|高雄市)`)
	districtRe = regexp.MustCompile(`(中正區|大同區|中山區|松山區|大安區|萬華區|信義區|士林區|北投區|內湖區|南港區|文山區|板橋區|三重區|中和區|永和區|新莊區|新店區|樹林區|鶯歌區|三峽區|淡水區|汐止區|土城區|蘆洲區|五股區|泰山區|林口區)`)
	depositRe  = regexp.MustCompile(`押金?(\d+)個?月`)
)

var facilityKeywords = []struct {
	name string
	any  []string
}{
	{"冷氣", []string{"冷氣", "空調", "變頻冷氣", "分離式冷氣"}},
	{"冰箱", []string{"冰箱", "電冰箱"}},
	{"洗衣機", []string{"洗衣機", "洗脫烘", "烘衣機"}},
	{"網路", []string{"網路", "wifi", "光纖", "寬頻"}},
	{"電視", []string{"電視", "液晶電視", "第四台"}},
	{"熱水器", []string{"熱水器", "瓦斯熱水器", "電熱水器"}},
	{"陽台", []string{"陽台", "露台", "曬衣間"}},
	{"對外窗", []string{"對外窗", "採光", "通風"}},
}

var publicKeywords = []struct {
	name string
	any  []string
}{
	{"電梯", []string{"電梯", "升降梯"}},
	{"停車位", []string{"停車位", "車位", "機車位"}},
	{"管理員", []string{"管理員", "警衛", "保全"}},
	{"垃圾處理", []string{"垃圾", "資源回收"}},
	{"信箱", []string{"信箱", "郵件"}},
}

var roomTypeKeywords = []struct {
	name string
	any  []string
}{
	{"獨立套房", []string{"獨立套房", "獨套", "1房1廳"}},
	{"分租套房", []string{"分租套房", "分租", "合租套房", "共生空間"}},
	{"雅房", []string{"雅房", "單人房", "共用衛浴"}},
	{"整層住家", []string{"整層", "整棟", "透天", "公寓", "華廈"}},
	{"其他", []string{"店面", "辦公室", "工作室", "倉庫"}},
}

var transportKeywords = []string{"捷運", "公車", "火車", "高鐵", "交通便利"}
var lifestyleKeywords = []string{"便利商店", "超市", "市場", "醫院", "學校", "公園", "銀行"}

// Mapper turns a scored listing into a database row. Now is injectable so
// tests get stable dates.
type Mapper struct {
	Now func() time.Time
}

func (m Mapper) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Map builds the full property set for one listing.
func (m Mapper) Map(l domain.Listing, res score.Result) Page {
	text := strings.ToLower(strings.Join(append([]string{l.Title, l.Description}, l.Facilities...), " "))

	props := Properties{
		"房源名稱": Title(orDefault(l.Title, "未提供標題")),
		"租金":   NumberOrNull(float64(l.Price)),
		"房型":   Select(identifyRoomType(text)),
		"地址":   RichText(l.Address),
		"市區名稱": RichText(firstMatch(cityRe, l.Address)),
		"區域名稱": RichText(firstMatch(districtRe, l.Address)),

		"適合度":  RichText(string(res.Suitability)),
		"平均評分": Number(Rating(res.Total)),
		"重要優勢": RichText(res.Advantages),
		"看房狀態": Select(StatusNew),

		"設備與特色":   MultiSelect(matchKeywordGroups(text, facilityKeywords)),
		"公共設施及空間": MultiSelect(matchKeywordGroups(text, publicKeywords)),
		"交通便利性":   RichText(analyzeKeywords(text, transportKeywords, "交通便利，鄰近", "交通資訊待確認")),
		"生活機能":    RichText(analyzeKeywords(text, lifestyleKeywords, "生活機能完善，附近有", "生活機能待確認")),

		"水電費":     RichText(extractUtilities(text)),
		"押金（個月）": Number(float64(ExtractDepositMonths(l.Title + " " + l.Description))),

		"房東聯繫方式": RichText(l.Contact),
		"網頁連結":   URL(l.URL),
		"網址":     URL(l.URL),

		"備註":     RichText(buildNotes(l)),
		"簽約注意事項": RichText(joinOrDefault(res.Recommendations, "；", "無特別注意事項")),
		"照片":     Files(capped(l.Images, 5)),
		"更新日期":   Date(m.now().UTC().Format(time.RFC3339)),
	}

	page := Page{Properties: props}
	if len(l.Images) > 0 {
		page.Children = append(page.Children, ImageBlock(l.Images[0]))
	}
	return page
}

// Rating converts the 0-110 total onto the database's 0-5 star scale,
// rounded to two decimals and clamped.
func Rating(total int) float64 {
	r := math.Round(float64(total)/20*100) / 100
	if r < 0 {
		return 0
	}
	if r > 5 {
		return 5
	}
	return r
}

// ExtractDepositMonths reads "押金2個月" style phrases. The market default
// of two months applies when nothing is stated.
func ExtractDepositMonths(text string) int {
	if m := depositRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return 2
}

func identifyRoomType(text string) string {
	for _, rt := range roomTypeKeywords {
		for _, k := range rt.any {
			if strings.Contains(text, k) {
				return rt.name
			}
		}
	}
	// plain 套房 maps to the independent kind unless a sharing keyword said otherwise
	if strings.Contains(text, "套房") {
		return "獨立套房"
	}
	return "其他"
}

func matchKeywordGroups(text string, groups []struct {
	name string
	any  []string
}) []string {
	var out []string
	for _, g := range groups {
		for _, k := range g.any {
			if strings.Contains(text, strings.ToLower(k)) {
				out = append(out, g.name)
				break
			}
		}
	}
	return out
}

func analyzeKeywords(text string, keywords []string, prefix, fallback string) string {
	var found []string
	for _, k := range keywords {
		if strings.Contains(text, k) {
			found = append(found, k)
		}
	}
	if len(found) == 0 {
		return fallback
	}
	return prefix + strings.Join(found, "、")
}

func extractUtilities(text string) string {
	switch {
	case strings.Contains(text, "水電費另計") || strings.Contains(text, "水電另計"):
		return "水電費另計"
	case strings.Contains(text, "水電費包含") || strings.Contains(text, "含水電"):
		return "水電費包含在租金內"
	default:
		return "水電費計算方式待確認"
	}
}

func buildNotes(l domain.Listing) string {
	var notes []string
	if l.Floor != "" {
		notes = append(notes, fmt.Sprintf("樓層：%s", l.Floor))
	}
	if l.Area != "" {
		notes = append(notes, fmt.Sprintf("坪數：%s", l.Area))
	}
	if len(l.Details) > 0 {
		notes = append(notes, "詳細資訊請參考原始連結")
	}
	if len(notes) == 0 {
		return "無特別備註"
	}
	return strings.Join(notes, "；")
}

func firstMatch(re *regexp.Regexp, s string) string {
	if m := re.FindString(s); m != "" {
		return m
	}
	return ""
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func joinOrDefault(xs []string, sep, def string) string {
	if len(xs) == 0 {
		return def
	}
	return strings.Join(xs, sep)
}

func capped(xs []string, n int) []string {
	if len(xs) <= n {
		return xs
	}
	return xs[:n]
}
