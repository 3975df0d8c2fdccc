package icon

// Icon identifies a symbol in the registry.
type Icon int

const (
	Fail Icon = iota + 1
	Success
	Progress
	Play
	Pause
	Camera
	Single
	Grid
	Speed
	Resume
	Search
)

var icons = map[Icon]*iconDef{
	Fail: {
		emoji:   "❌",
		nerd:    "",
		plain:   "x",
		kaomoji: "(╥﹏╥)",
		squares: "▣",
	},
	Success: {
		emoji:   "✅",
		nerd:    "",
		plain:   "v",
		kaomoji: "(ᵔ◡ᵔ)",
		squares: "■",
	},
	Progress: {
		emoji:   "⏳",
		nerd:    "",
		plain:   "...",
		kaomoji: "(・_・ヾ",
		squares: "◫",
	},
	Play: {
		emoji:   "▶️",
		nerd:    "",
		plain:   ">",
		kaomoji: "(ง'̀-'́)ง",
		squares: "▷",
	},
	Pause: {
		emoji:   "⏸️",
		nerd:    "",
		plain:   "||",
		kaomoji: "(-_-)zzz",
		squares: "◧",
	},
	Camera: {
		emoji:   "📹",
		nerd:    "",
		plain:   "cam",
		kaomoji: "[◉]",
		squares: "◙",
	},
	Single: {
		emoji:   "🔍",
		nerd:    "",
		plain:   "[ ]",
		kaomoji: "(⊙_⊙)",
		squares: "□",
	},
	Grid: {
		emoji:   "🔲",
		nerd:    "",
		plain:   "[+]",
		kaomoji: "(◕‿◕)",
		squares: "⊞",
	},
	Speed: {
		emoji:   "⏩",
		nerd:    "",
		plain:   ">>",
		kaomoji: "ε=ε=(ノ≧∇≦)ノ",
		squares: "▹",
	},
	Resume: {
		emoji:   "🔁",
		nerd:    "",
		plain:   "~",
		kaomoji: "(｡•̀ᴗ-)",
		squares: "◩",
	},
	Search: {
		emoji:   "🔎",
		nerd:    "",
		plain:   "?",
		kaomoji: "(¬_¬)",
		squares: "◌",
	},
}
