package rc

// Asset is a file-backed resource (icon, bitmap, png, cursor, ...).
type Asset struct {
	ID     string
	File   string
	Line   int
	Exists bool
}

// StringEntry is a STRINGTABLE row.
type StringEntry struct {
	Line int
	Text string
}

// AcceleratorEntry is one row of an ACCELERATORS table.
type AcceleratorEntry struct {
	ID       string
	Shortcut string
	Line     int
}

// IsUnknown holds if the shortcut references a raw virtual-key token rather
// than a printable character (§4.B).
func (a AcceleratorEntry) IsUnknown() bool {
	return containsVK(a.Shortcut)
}

func containsVK(shortcut string) bool {
	return len(shortcut) >= 3 && indexOf(shortcut, "VK_") >= 0
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

// AcceleratorTable groups accelerator entries declared under one id.
type AcceleratorTable struct {
	ID      string
	Entries []AcceleratorEntry
}

// MenuItem is a node in a MENU/MENUEX tree: either a MENUITEM leaf or a
// POPUP with children.
type MenuItem struct {
	ID       string
	Text     string
	Shortcut string
	Flags    []string
	Children []MenuItem
}

// Menu is a top-level MENU/MENUEX block.
type Menu struct {
	ID    string
	Items []MenuItem
}

// ToolBarButton is one BUTTON/SEPARATOR row of a TOOLBAR block.
type ToolBarButton struct {
	ID         string
	Separator  bool
}

// ToolBar is a TOOLBAR block.
type ToolBar struct {
	ID      string
	Width   int
	Height  int
	Buttons []ToolBarButton
}

// Control is a single dialog control record (§4.B).
type Control struct {
	Type      string // RC keyword (PUSHBUTTON, LTEXT, ...) or "CONTROL"
	ClassName string // explicit class, only set when Type == "CONTROL"
	Text      string
	ID        string
	X, Y      int
	W, H      int
	Styles    []string
	ExStyles  []string
	Line      int
}

// Dialog is a DIALOG/DIALOGEX block.
type Dialog struct {
	ID       string
	X, Y     int
	W, H     int
	Caption  string
	Menu     string
	ClassName string
	Styles   []string
	ExStyles []string
	Controls []Control
	Line     int
}

// RcData holds every resource parsed for one LANGUAGE block (§4.B).
type RcData struct {
	Language          string
	IsValid           bool
	Includes          []string
	Icons             map[string]Asset
	Assets            map[string]Asset
	Strings           map[string]StringEntry
	AcceleratorTables []AcceleratorTable
	Menus             []Menu
	ToolBars          []ToolBar
	Dialogs           []Dialog
}

// NewRcData returns an RcData with all maps initialized.
func NewRcData(language string) *RcData {
	return &RcData{
		Language: language,
		Icons:    make(map[string]Asset),
		Assets:   make(map[string]Asset),
		Strings:  make(map[string]StringEntry),
	}
}

// RcFile is the multi-language container produced by parsing a whole `.rc`
// file (§3 RcDocument: "a mapping language → RcData").
type RcFile struct {
	Languages       map[string]*RcData
	CurrentLanguage string
}

// DefaultLanguage is used for resources declared outside any LANGUAGE block.
const DefaultLanguage = "[default]"

// NewRcFile returns an empty multi-language RC file.
func NewRcFile() *RcFile {
	return &RcFile{Languages: make(map[string]*RcData), CurrentLanguage: DefaultLanguage}
}

// Data returns (creating if needed) the RcData for language.
func (f *RcFile) Data(language string) *RcData {
	if language == "" {
		language = DefaultLanguage
	}
	if d, ok := f.Languages[language]; ok {
		return d
	}
	d := NewRcData(language)
	f.Languages[language] = d
	return d
}

// LanguageIDs lists the known language ids, in no particular order.
func (f *RcFile) LanguageIDs() []string {
	ids := make([]string, 0, len(f.Languages))
	for id := range f.Languages {
		ids = append(ids, id)
	}
	return ids
}
