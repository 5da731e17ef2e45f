package rcconvert

import (
	"math"
	"testing"

	"github.com/kdab-labs/knutgo/internal/rc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertDialogWithPushButton(t *testing.T) {
	src := []byte(`IDD_ABOUT DIALOGEX 0, 0, 200, 100
STYLE WS_CAPTION
CAPTION "About"
BEGIN
    PUSHBUTTON "OK",IDOK,50,70,50,14
END
`)
	f := rc.ParseFile(src)
	d := f.Data(rc.DefaultLanguage)
	require.Len(t, d.Dialogs, 1)

	c := NewConverter()
	w := c.ConvertDialog(d.Dialogs[0])

	assert.Equal(t, "QDialog", w.Class)
	title, ok := w.Property("windowTitle")
	require.True(t, ok)
	assert.Equal(t, "About", title)

	require.Len(t, w.Children, 1)
	btn := w.Children[0]
	assert.Equal(t, "QPushButton", btn.Class)
	assert.Equal(t, "IDOK", btn.Name)
	text, _ := btn.Property("text")
	assert.Equal(t, "OK", text)

	// x'=round(1.5*50)=75, y'=round(1.65*70)=116, w'=ceil(1.5*50)=75, h'=ceil(1.65*14)=24
	assert.Equal(t, Geometry{X: 75, Y: 116, W: 75, H: 24}, btn.Geometry)
}

func TestConvertDialogWithMenuIsMainWindow(t *testing.T) {
	src := []byte(`IDD_MAIN DIALOGEX 0, 0, 300, 200
STYLE WS_CAPTION
MENU IDR_MAINMENU
CAPTION "Main"
BEGIN
END
`)
	f := rc.ParseFile(src)
	d := f.Data(rc.DefaultLanguage)
	c := NewConverter()
	w := c.ConvertDialog(d.Dialogs[0])
	assert.Equal(t, "QMainWindow", w.Class)
}

func TestConvertDialogWithoutCaptionIsWidget(t *testing.T) {
	src := []byte(`IDD_PLAIN DIALOGEX 0, 0, 100, 50
BEGIN
END
`)
	f := rc.ParseFile(src)
	d := f.Data(rc.DefaultLanguage)
	c := NewConverter()
	w := c.ConvertDialog(d.Dialogs[0])
	assert.Equal(t, "QWidget", w.Class)
}

func TestConvertCheckBoxTristate(t *testing.T) {
	src := []byte(`IDD_CB DIALOGEX 0, 0, 100, 50
BEGIN
    AUTO3STATE "Maybe",IDC_CHECK,10,10,80,10
END
`)
	f := rc.ParseFile(src)
	d := f.Data(rc.DefaultLanguage)
	c := NewConverter()
	w := c.ConvertDialog(d.Dialogs[0])
	require.Len(t, w.Children, 1)
	cb := w.Children[0]
	assert.Equal(t, "QCheckBox", cb.Class)
	tri, ok := cb.Property("tristate")
	require.True(t, ok)
	assert.Equal(t, "true", tri)
}

func TestConvertDefPushButtonSetsDefault(t *testing.T) {
	src := []byte(`IDD_DEF DIALOGEX 0, 0, 100, 50
BEGIN
    DEFPUSHBUTTON "OK",IDOK,10,10,40,14
END
`)
	f := rc.ParseFile(src)
	d := f.Data(rc.DefaultLanguage)
	c := NewConverter()
	w := c.ConvertDialog(d.Dialogs[0])
	require.Len(t, w.Children, 1)
	def, ok := w.Children[0].Property("default")
	require.True(t, ok)
	assert.Equal(t, "true", def)
}

func TestConvertComboBoxForcesFixedHeight(t *testing.T) {
	src := []byte(`IDD_COMBO DIALOGEX 0, 0, 100, 50
BEGIN
    COMBOBOX IDC_COMBO,10,10,80,100,CBS_DROPDOWN
END
`)
	f := rc.ParseFile(src)
	d := f.Data(rc.DefaultLanguage)
	c := NewConverter()
	w := c.ConvertDialog(d.Dialogs[0])
	require.Len(t, w.Children, 1)
	combo := w.Children[0]
	assert.Equal(t, "QComboBox", combo.Class)
	// MFC reports the drop-down list height, not the combobox height; it is
	// forced to the fixed 22/sy on-screen height instead of ceil(1.65*100).
	assert.Equal(t, int(math.Ceil(22/c.Scale.Y)), combo.Geometry.H)
}

func TestConvertComboBoxSimpleKeepsScaledHeight(t *testing.T) {
	src := []byte(`IDD_COMBO DIALOGEX 0, 0, 100, 50
BEGIN
    COMBOBOX IDC_COMBO,10,10,80,100,CBS_SIMPLE
END
`)
	f := rc.ParseFile(src)
	d := f.Data(rc.DefaultLanguage)
	c := NewConverter()
	w := c.ConvertDialog(d.Dialogs[0])
	require.Len(t, w.Children, 1)
	combo := w.Children[0]
	assert.Equal(t, "QListWidget", combo.Class)
	assert.Equal(t, int(math.Ceil(c.Scale.Y*100)), combo.Geometry.H)
}

func TestAdjustHierarchyReparentsContainedControl(t *testing.T) {
	outer := &Widget{Name: "GRP", Geometry: Geometry{X: 0, Y: 0, W: 100, H: 100}}
	inner := &Widget{Name: "BTN", Geometry: Geometry{X: 10, Y: 10, W: 20, H: 20}}

	c := NewConverter()
	result := c.adjustHierarchy([]*Widget{outer, inner})

	require.Len(t, result, 1)
	assert.Equal(t, "GRP", result[0].Name)
	require.Len(t, result[0].Children, 1)
	assert.Equal(t, "BTN", result[0].Children[0].Name)
	// translated into the parent's local coordinate space
	assert.Equal(t, Geometry{X: 10, Y: 10, W: 20, H: 20}, result[0].Children[0].Geometry)
}

func TestAdjustHierarchyLeavesDisjointControlsAtRoot(t *testing.T) {
	a := &Widget{Name: "A", Geometry: Geometry{X: 0, Y: 0, W: 10, H: 10}}
	b := &Widget{Name: "B", Geometry: Geometry{X: 50, Y: 50, W: 10, H: 10}}

	c := NewConverter()
	result := c.adjustHierarchy([]*Widget{a, b})
	assert.Len(t, result, 2)
}
