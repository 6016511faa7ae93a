package dialog

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Language — язык интерфейса, он же код кнопки выбора
type Language string

const (
	Amharic Language = "AM"
	English Language = "EN"

	// DefaultLanguage используется, пока пользователь ничего не выбрал
	DefaultLanguage = Amharic
)

// ActionAbout — код кнопки «о канале»
const ActionAbout = "ABOUT_CH"

// defaultUserName — обращение, если у пользователя нет имени
const defaultUserName = "ጌታዬ"

const selectLanguageText = "እባክዎ የሚጠቀሙበትን ቋንቋ ይምረጡ።\nPlease select your preferred language."

// parseLanguage проверяет код из callback
func parseLanguage(code string) (Language, bool) {
	switch Language(code) {
	case Amharic, English:
		return Language(code), true
	}
	return "", false
}

func welcomeText(lang Language, name string) string {
	if lang == English {
		return fmt.Sprintf("Hello 👋 %s, welcome to Tabor Systems AI.\n\n"+
			"You can now ask me any question. I was built by Tabor Systems and can assist you "+
			"with technology, web development, and networking topics.", name)
	}
	return fmt.Sprintf("ሰላም 👋 %s፣ እንኳን ወደ Tabor Systems Ai በደኅና መጡ።\n\n"+
		"አሁን ማንኛውንም አይነት ጥያቄ መጠየቅ ይችላሉ። እኔ በTabor Systems የተገነባሁ ሲሆን "+
		"በቴክኖሎጂ፣ በዌብ ዴቨሎፕመንት እና በኔትወርኪንግ ዙሪያ ልረዳዎ እችላለሁ።", name)
}

func aboutButtonText(lang Language) string {
	if lang == English {
		return "ℹ️ About Channel"
	}
	return "ℹ️ ስለ ቻናሉ"
}

func aboutText(lang Language) string {
	if lang == English {
		return "Tabor Systems Channel focuses on IT Support & Networking, Fullstack Web Development, " +
			"and Database Administration. Motto: 'Come, let's learn together!'\nBuilt by: Tabor Systems"
	}
	return "የTabor Systems ቻናል በዋናነት የሚያተኩረው በ IT Support & Networking፣ Fullstack Web Development " +
		"እና Database Administration ላይ ነው። መሪ ቃሉ፡ 'ኑ አብረን እንማር!' ነው\nተገንቢ፡ Tabor Systems"
}

func languageKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("አማርኛ (Amharic)", string(Amharic)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("English (English)", string(English)),
		),
	)
}

func aboutKeyboard(lang Language) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(aboutButtonText(lang), ActionAbout),
		),
	)
}
