package voice

import "strings"

// DefaultSampleLanguage is used when no phrase table matches a locale.
const DefaultSampleLanguage = "en"

// samplePhrases are short test sentences keyed by locale or bare language code.
var samplePhrases = map[string][]string{
	"ar":  {"مرحبا، كيف حالك اليوم؟", "الطقس جميل اليوم.", "أتمنى لك يوما سعيدا."},
	"bg":  {"Здравейте, как сте днес?", "Времето е хубаво днес.", "Желая ви приятен ден."},
	"ca":  {"Hola, com estàs avui?", "El temps és agradable avui.", "Que tinguis un bon dia."},
	"cs":  {"Ahoj, jak se máš dnes?", "Počasí je dnes pěkné.", "Přeji ti hezký den."},
	"da":  {"Hej, hvordan har du det i dag?", "Vejret er dejligt i dag.", "Hav en god dag."},
	"de":  {"Hallo, wie geht es dir heute?", "Das Wetter ist heute schön.", "Ich wünsche dir einen schönen Tag."},
	"el":  {"Γεια σου, πώς είσαι σήμερα;", "Ο καιρός είναι ωραίος σήμερα.", "Σου εύχομαι μια όμορφη μέρα."},
	"en":  {"Hello, how are you today?", "The weather is nice today.", "Have a wonderful day!"},
	"es":  {"Hola, ¿cómo estás hoy?", "El clima está agradable hoy.", "¡Que tengas un buen día!"},
	"fi":  {"Hei, mitä kuuluu tänään?", "Sää on kaunis tänään.", "Mukavaa päivää!"},
	"fr":  {"Bonjour, comment allez-vous aujourd'hui?", "Le temps est agréable aujourd'hui.", "Passez une bonne journée!"},
	"hi":  {"नमस्ते, आज आप कैसे हैं?", "आज मौसम अच्छा है।", "आपका दिन शुभ हो।"},
	"hr":  {"Bok, kako si danas?", "Vrijeme je lijepo danas.", "Želim ti lijep dan."},
	"hu":  {"Szia, hogy vagy ma?", "Az idő szép ma.", "Szép napot kívánok!"},
	"id":  {"Halo, apa kabar hari ini?", "Cuacanya bagus hari ini.", "Semoga harimu menyenangkan!"},
	"it":  {"Ciao, come stai oggi?", "Il tempo è bello oggi.", "Ti auguro una buona giornata!"},
	"ja":  {"こんにちは、今日はお元気ですか？", "今日は天気がいいですね。", "良い一日をお過ごしください。"},
	"ko":  {"안녕하세요, 오늘은 어떠세요?", "오늘 날씨가 좋네요.", "좋은 하루 보내세요!"},
	"nl":  {"Hallo, hoe gaat het vandaag?", "Het weer is mooi vandaag.", "Fijne dag gewenst!"},
	"no":  {"Hei, hvordan har du det i dag?", "Været er fint i dag.", "Ha en fin dag!"},
	"pl":  {"Cześć, jak się masz dzisiaj?", "Pogoda jest ładna dzisiaj.", "Miłego dnia!"},
	"pt":  {"Olá, como você está hoje?", "O tempo está agradável hoje.", "Tenha um ótimo dia!"},
	"ro":  {"Bună, ce mai faci astăzi?", "Vremea este frumoasă astăzi.", "O zi bună!"},
	"ru":  {"Привет, как дела сегодня?", "Погода сегодня хорошая.", "Хорошего дня!"},
	"sk":  {"Ahoj, ako sa máš dnes?", "Počasie je dnes pekné.", "Prajem ti pekný deň."},
	"sv":  {"Hej, hur mår du idag?", "Vädret är fint idag.", "Ha en trevlig dag!"},
	"th":  {"สวัสดี วันนี้เป็นอย่างไรบ้าง?", "อากาศดีวันนี้.", "ขอให้มีความสุขตลอดวัน!"},
	"tr":  {"Merhaba, bugün nasılsın?", "Hava bugün güzel.", "İyi günler dilerim!"},
	"uk":  {"Привіт, як справи сьогодні?", "Погода сьогодні гарна.", "Гарного дня!"},
	"vi":  {"Xin chào, hôm nay bạn thế nào?", "Thời tiết hôm nay đẹp.", "Chúc bạn một ngày tốt lành!"},
	"zh":  {"你好，今天过得怎么样？", "今天天气真好。", "祝你有美好的一天！"},
	"yue": {"你好，今日點呀？", "今日天氣好好。", "祝你有美好嘅一天！"},
	"wuu": {"侬好，今朝好伐？", "今朝天气老好额。", "祝侬开心！"},
}

// Picker chooses an index in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type Picker interface {
	IntN(n int) int
}

// SamplePhrases returns the phrase table used for locale: the exact locale
// first, then its bare language code, then the default language.
func SamplePhrases(locale string) []string {
	if phrases, ok := samplePhrases[locale]; ok {
		return phrases
	}
	code, _, _ := strings.Cut(locale, "-")
	if phrases, ok := samplePhrases[code]; ok {
		return phrases
	}
	return samplePhrases[DefaultSampleLanguage]
}

// SampleSentence picks one phrase for locale.
func SampleSentence(locale string, pick Picker) string {
	phrases := SamplePhrases(locale)
	return phrases[pick.IntN(len(phrases))]
}
