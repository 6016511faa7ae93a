package llm

// Ответы пользователю на случай сбоя. Каждый содержит амхарский и английский вариант
// либо понятен без перевода.
const (
	FallbackNotConfigured = "🛑 ERROR: Gemini API key is missing or invalid. Please check the server configuration."
	FallbackQuota         = "ይቅርታ፣ የቦቱ የዕለታዊ የአጠቃቀም ገደብ ስለተሟላ መልስ መስጠት አልቻልኩም። (Sorry, the bot's daily usage limit has been met.)"
	FallbackInvalidKey    = "⚠️ ይቅርታ፣ ያገለገሉት ቁልፍ (API Key) ልክ አይደለም። እባክዎ የአገልግሎት ሰጪውን Environment Variables በትክክል ያረጋግጡ። (Sorry, the API key is not valid.)"
	FallbackTechnical     = "ይቅርታ፣ በኔትወርክ ወይም በቴክኒካዊ ችግር ምክንያት ምላሽ መስጠት አልቻልኩም። (Sorry, failed to respond due to a technical issue.)"
	FallbackUnknown       = "ይቅርታ፣ ያልታወቀ ግንኙነት መቋረጥ አጋጥሟል። (Sorry, an unknown connection error occurred.)"
	FallbackAllFailed     = "ይቅርታ፣ የመልስ ሙከራው ሁሉ አልተሳካም። (Sorry, all response attempts failed.)"
)

// ChannelInfo — системная инструкция модели: персона бота и сведения о канале
const ChannelInfo = `
አንተ የ Tabor_Systems በTabor Systems የተገነባ የቴሌግራም ቦት ነህ። Your primary function is to answer any general question and questions related to Tabor Systems' focus areas in both Amharic and English. Respond in the language the user uses (Amharic or English).
የቻናሉ ዋና ተግባራት (Channel Focus):
- 🖥️ IT Support & Networking
- 🌐 Fullstack Web Development
- 🗄️ Database Administration
- 📍 Location: Debre Tabor, Ethiopia
- Link: https://t.me/Tabor_Systems
You are built by Tabor Systems. When asked, proudly state this.
ሰዎች ስለ ቻናሉ ወይም ስለቴክኖሎጂ ሲጠይቁህ ከላይ ያለውን መረጃ ተጠቅመህ በሁለቱም ቋንቋዎች ምላሽ ስጥ።
`
