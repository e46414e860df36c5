package language

// whisperLanguages are the ISO 639-1 codes Whisper models are trained on.
var whisperLanguages = []string{
	"af", "am", "ar", "as", "az", "ba", "be", "bg", "bn", "bo", "br", "bs", "ca", "cs", "cy",
	"da", "de", "el", "en", "es", "et", "eu", "fa", "fi", "fo", "fr", "gl", "gu", "ha", "haw",
	"he", "hi", "hr", "ht", "hu", "hy", "id", "is", "it", "ja", "jv", "ka", "kk", "km", "kn",
	"ko", "la", "lb", "ln", "lo", "lt", "lv", "mg", "mi", "mk", "ml", "mn", "mr", "ms", "mt",
	"my", "ne", "nl", "nn", "no", "oc", "pa", "pl", "ps", "pt", "ro", "ru", "sa", "sd", "si",
	"sk", "sl", "sn", "so", "sq", "sr", "su", "sv", "sw", "ta", "te", "tg", "th", "tk", "tl",
	"tr", "tt", "uk", "ur", "uz", "vi", "yi", "yo", "yue", "zh",
}

// WhisperLanguages returns the Whisper language set as ISO 639-3 codes.
func WhisperLanguages() []string {
	out := make([]string, 0, len(whisperLanguages))
	for _, code := range whisperLanguages {
		if iso3 := ToISO3(code); iso3 != "und" {
			out = append(out, iso3)
		}
	}
	return out
}
