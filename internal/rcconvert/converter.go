package rcconvert

import (
	"fmt"
	"math"

	"github.com/kdab-labs/knutgo/internal/rc"
	"github.com/tliron/commonlog"
)

// Win32/MFC style tokens consumed by the converter (§4.C), grounded on the
// style-token catalogue in the original dialog converter.
const (
	bsAuto3State     = "BS_AUTO3STATE"
	bs3State         = "BS_3STATE"
	bsAutoCheckbox   = "BS_AUTOCHECKBOX"
	bsAutoRadio      = "BS_AUTORADIOBUTTON"
	bsCheckbox       = "BS_CHECKBOX"
	bsRadioButton    = "BS_RADIOBUTTON"
	bsDefPushButton  = "BS_DEFPUSHBUTTON"
	bsBitmap         = "BS_BITMAP"
	bsIcon           = "BS_ICON"
	bsFlat           = "BS_FLAT"

	cbsDropDown     = "CBS_DROPDOWN"
	cbsDropDownList = "CBS_DROPDOWNLIST"
	cbsSimple       = "CBS_SIMPLE"

	ssRight          = "SS_RIGHT"
	ssCenter         = "SS_CENTER"
	ssCenterImage    = "SS_CENTERIMAGE"
	ssSunken         = "SS_SUNKEN"
	ssBlackFrame     = "SS_BLACKFRAME"
	ssRealSizeCtl    = "SS_REALSIZECONTROL"
	ssBitmap         = "SS_BITMAP"
	ssIcon           = "SS_ICON"
	ssLeftNoWordWrap = "SS_LEFTNOWORDWRAP"
	ssLeft           = "SS_LEFT"

	esMultiline = "ES_MULTILINE"
	esCenter    = "ES_CENTER"
	esRight     = "ES_RIGHT"
	esLeft      = "ES_LEFT"
	esPassword  = "ES_PASSWORD"
	esReadOnly  = "ES_READONLY"

	lbsNoSel           = "LBS_NOSEL"
	lbsMultipleSel     = "LBS_MULTIPLESEL"
	lbsExtendedSel     = "LBS_EXTENDEDSEL"
	lbsSort            = "LBS_SORT"
	lbsStandard        = "LBS_STANDARD"
	lbsDisableNoScroll = "LBS_DISABLENOSCROLL"

	sbsVert = "SBS_VERT"
	sbsHorz = "SBS_HORZ"

	tbsVert    = "TBS_VERT"
	tbsHorz    = "TBS_HORZ"
	tbsNoTicks = "TBS_NOTICKS"
	tbsBoth    = "TBS_BOTH"
	tbsLeft    = "TBS_LEFT"
	tbsRight   = "TBS_RIGHT"
	tbsTop     = "TBS_TOP"
	tbsBottom  = "TBS_BOTTOM"

	tcsBottom   = "TCS_BOTTOM"
	tcsVertical = "TCS_VERTICAL"
	tcsRight    = "TCS_RIGHT"

	dtsLongDate  = "DTS_LONGDATEFORMAT"
	dtsShortDate = "DTS_SHORTDATEFORMAT"

	wsCaption        = "WS_CAPTION"
	wsBorder         = "WS_BORDER"
	wsDisabled       = "WS_DISABLED"
	wsTabStop        = "WS_TABSTOP"
	wsHScroll        = "WS_HSCROLL"
	wsVScroll        = "WS_VSCROLL"
	wsExClientEdge   = "WS_EX_CLIENTEDGE"
	wsExStaticEdge   = "WS_EX_STATICEDGE"
	wsExDlgModalFrame = "WS_EX_DLGMODALFRAME"
)

// Converter rewrites parsed RC dialogs into Qt-style Widget trees (§4.C).
type Converter struct {
	Scale  Scale
	Flags  Flags
	logger commonlog.Logger
}

// NewConverter returns a Converter with the default scale and every
// conversion flag enabled.
func NewConverter() *Converter {
	return &Converter{
		Scale:  DefaultScale,
		Flags:  UpdateHierarchy | UpdateGeometry | UseIDForPixmap,
		logger: commonlog.GetLoggerf("knut.rcconvert"),
	}
}

// ConvertDialog converts one parsed Dialog into its Widget tree (§4.C).
func (c *Converter) ConvertDialog(d rc.Dialog) Widget {
	widget := Widget{Name: d.ID}
	if c.Flags.has(UpdateGeometry) {
		widget.Geometry = c.updateGeometry(d.X, d.Y, d.W, d.H)
	}

	styles := newStyleSet(d.Styles)
	switch {
	case d.Menu != "":
		widget.Class = "QMainWindow"
	case styles.remove(wsCaption):
		widget.Class = "QDialog"
	default:
		widget.Class = "QWidget"
	}
	if d.Caption != "" {
		widget.SetProperty("windowTitle", d.Caption)
	}
	if rest := styles.remaining(); len(rest) > 0 {
		c.logger.Infof("%s: unused dialog styles: %v", d.ID, rest)
	}

	children := make([]*Widget, 0, len(d.Controls))
	for _, ctrl := range d.Controls {
		w := c.convertChildWidget(ctrl)
		children = append(children, w)
	}

	if c.Flags.has(UpdateHierarchy) {
		widget.Children = c.adjustHierarchy(children)
	} else {
		widget.Children = children
	}
	return widget
}

// updateGeometry applies the §4.C scaling rule: x'=round(sx*x), y'=round(sy*y),
// w'=ceil(sx*w), h'=ceil(sy*h).
func (c *Converter) updateGeometry(x, y, w, h int) Geometry {
	return Geometry{
		X: int(math.Round(c.Scale.X * float64(x))),
		Y: int(math.Round(c.Scale.Y * float64(y))),
		W: int(math.Ceil(c.Scale.X * float64(w))),
		H: int(math.Ceil(c.Scale.Y * float64(h))),
	}
}

// convertChildWidget dispatches a Control to its class-specific converter
// based on the RC keyword it was declared with (§4.C mapping table).
func (c *Converter) convertChildWidget(ctrl rc.Control) *Widget {
	var w Widget
	switch ctrl.Type {
	case "DEFPUSHBUTTON", "PUSHBOX", "PUSHBUTTON":
		w = c.convertPushButton(ctrl)
	case "AUTORADIOBUTTON", "RADIOBUTTON":
		w = c.convertRadioButton(ctrl)
	case "AUTO3STATE", "AUTOCHECKBOX", "CHECKBOX", "STATE3":
		w = c.convertCheckBox(ctrl)
	case "COMBOBOX":
		w = c.convertComboBox(ctrl)
	case "CTEXT", "LTEXT", "RTEXT", "ICON":
		w = c.convertLabel(ctrl)
	case "EDITTEXT":
		w = c.convertEditText(ctrl)
	case "GROUPBOX":
		w = c.convertGroupBox(ctrl)
	case "LISTBOX":
		w = c.convertListWidget(ctrl)
	case "SCROLLBAR":
		w = c.convertScrollBar(ctrl)
	case "CONTROL":
		w = c.convertControl(ctrl)
	default:
		c.logger.Criticalf("unknown control type: %s", ctrl.Type)
		w = Widget{Class: "QWidget"}
	}
	w.Name = ctrl.ID
	w.Geometry = c.updateGeometry(ctrl.X, ctrl.Y, ctrl.W, ctrl.H)
	if ctrl.Type == "COMBOBOX" && w.Class != "QListWidget" {
		// In MFC, the height is not the height of the combobox but of the
		// drop-down list; force it to the fixed on-screen combobox height.
		w.Geometry.H = int(math.Ceil(22 / c.Scale.Y))
	}
	return &w
}

// convertStyles consumes the styles every control shares (frame decoration,
// disabled state, tab stop) and logs whatever is left over (§4.C: styles
// with no Qt equivalent are reported, not silently dropped).
func convertStyles(w *Widget, ctrl rc.Control, logger commonlog.Logger, isFrame bool) {
	styles := newStyleSet(ctrl.Styles)
	if isFrame {
		switch {
		case styles.remove(wsExClientEdge):
			w.SetProperty("frameShape", "QFrame::Panel")
			w.SetProperty("frameShadow", "QFrame::Sunken")
		case styles.remove(wsExStaticEdge):
			w.SetProperty("frameShape", "QFrame::StyledPanel")
			w.SetProperty("frameShadow", "QFrame::Sunken")
		case styles.remove(wsExDlgModalFrame):
			w.SetProperty("frameShape", "QFrame::Panel")
			w.SetProperty("frameShadow", "QFrame::Raised")
		}
		if styles.remove(wsBorder) {
			w.SetProperty("frameShape", "QFrame::Box")
		}
	}

	if styles.remove(wsDisabled) {
		w.SetProperty("enabled", "false")
	}
	// WS_TABSTOP is handled by Qt widgets through focus navigation.
	styles.remove(wsTabStop)

	if rest := styles.remaining(); len(rest) > 0 {
		logger.Infof("%s: unused styles: %v", ctrl.ID, rest)
	}
}

func (c *Converter) convertPushButton(ctrl rc.Control) Widget {
	w := Widget{Class: "QPushButton"}
	w.SetProperty("text", ctrl.Text)

	styles := newStyleSet(ctrl.Styles)
	if styles.removeAny(bsAuto3State, bs3State, bsCheckbox, bsRadioButton, bsAutoCheckbox, bsAutoRadio) {
		w.SetProperty("checkable", "true")
	}
	if styles.remove(bsDefPushButton) || ctrl.Type == "DEFPUSHBUTTON" {
		w.SetProperty("default", "true")
	}
	// The button image is applied at runtime via BM_SETIMAGE; not ported.
	styles.remove(bsBitmap)
	styles.remove(bsIcon)
	if styles.remove(bsFlat) || ctrl.Type == "PUSHBOX" {
		w.SetProperty("flat", "true")
	}
	ctrl.Styles = styles.remaining()
	convertStyles(&w, ctrl, c.logger, false)
	return w
}

func (c *Converter) convertRadioButton(ctrl rc.Control) Widget {
	w := Widget{Class: "QRadioButton"}
	w.SetProperty("text", ctrl.Text)

	styles := newStyleSet(ctrl.Styles)
	styles.remove(bsRadioButton)
	styles.remove(bsAutoRadio)
	ctrl.Styles = styles.remaining()
	convertStyles(&w, ctrl, c.logger, false)
	return w
}

func (c *Converter) convertCheckBox(ctrl rc.Control) Widget {
	w := Widget{Class: "QCheckBox"}
	w.SetProperty("text", ctrl.Text)

	styles := newStyleSet(ctrl.Styles)
	if styles.removeAny(bsAuto3State, bs3State) || ctrl.Type == "STATE3" || ctrl.Type == "AUTO3STATE" {
		w.SetProperty("tristate", "true")
	}
	styles.remove(bsCheckbox)
	styles.remove(bsAutoCheckbox)
	ctrl.Styles = styles.remaining()
	convertStyles(&w, ctrl, c.logger, false)
	return w
}

func (c *Converter) convertComboBox(ctrl rc.Control) Widget {
	w := Widget{Class: "QComboBox"}
	styles := newStyleSet(ctrl.Styles)

	if styles.remove(cbsSimple) {
		w.Class = "QListWidget"
	} else {
		if styles.remove(cbsDropDown) {
			w.SetProperty("editable", "true")
			w.SetProperty("insertPolicy", "QComboBox::NoInsert")
		}
	}
	styles.remove(cbsDropDownList)
	styles.remove(wsVScroll)
	ctrl.Styles = styles.remaining()
	convertStyles(&w, ctrl, c.logger, false)
	return w
}

func (c *Converter) convertLabel(ctrl rc.Control) Widget {
	w := Widget{Class: "QLabel"}
	styles := newStyleSet(ctrl.Styles)

	if styles.remove(ssRight) || ctrl.Type == "RTEXT" {
		w.SetProperty("alignment", "Qt::AlignRight")
	}
	if styles.removeAny(ssCenter, ssCenterImage) || ctrl.Type == "CTEXT" {
		w.SetProperty("alignment", "Qt::AlignHCenter")
	}
	if styles.remove(ssSunken) {
		w.SetProperty("frameShape", "QFrame::Plain")
		w.SetProperty("frameShadow", "QFrame::Sunken")
	}
	if styles.remove(ssBlackFrame) {
		w.SetProperty("frameShape", "QFrame::Box")
	}
	if styles.remove(ssRealSizeCtl) {
		w.SetProperty("scaledContents", "true")
	}
	if styles.removeAny(ssBitmap, ssIcon) || ctrl.Type == "ICON" {
		w.SetProperty("pixmap", ctrl.Text)
	} else {
		w.SetProperty("text", ctrl.Text)
	}
	if styles.remove(ssLeftNoWordWrap) {
		w.SetProperty("wordWrap", "true")
	}
	styles.remove(ssLeft)
	ctrl.Styles = styles.remaining()
	convertStyles(&w, ctrl, c.logger, true)
	return w
}

func (c *Converter) convertEditText(ctrl rc.Control) Widget {
	var w Widget
	hasFrame := false
	styles := newStyleSet(ctrl.Styles)

	if styles.remove(esMultiline) || ctrl.ClassName == "RICHEDIT" {
		w.Class = "QTextEdit"
		hasFrame = true
	} else {
		w.Class = "QLineEdit"
		switch {
		case styles.remove(esCenter):
			w.SetProperty("alignment", "Qt::AlignCenter|Qt::AlignVCenter")
		case styles.remove(esRight):
			w.SetProperty("alignment", "Qt::AlignRight|Qt::AlignVCenter")
		default:
			styles.remove(esLeft)
			w.SetProperty("alignment", "Qt::AlignLeft|Qt::AlignVCenter")
		}
		if styles.remove(esPassword) {
			w.SetProperty("echoMode", "QLineEdit::Password")
		}
	}
	if styles.remove(esReadOnly) {
		w.SetProperty("readOnly", "true")
	}
	ctrl.Styles = styles.remaining()
	convertStyles(&w, ctrl, c.logger, hasFrame)
	return w
}

func (c *Converter) convertGroupBox(ctrl rc.Control) Widget {
	w := Widget{Class: "QGroupBox"}
	w.SetProperty("title", ctrl.Text)
	convertStyles(&w, ctrl, c.logger, false)
	return w
}

func (c *Converter) convertListWidget(ctrl rc.Control) Widget {
	w := Widget{Class: "QListWidget"}
	styles := newStyleSet(ctrl.Styles)

	if ctrl.Type == "CONTROL" && ctrl.ClassName == "SysListView32" {
		w.SetProperty("viewMode", "QListView::IconMode")
	}

	switch {
	case styles.remove(lbsNoSel):
		w.SetProperty("selectionMode", "QAbstractItemView::NoSelection")
	case styles.remove(lbsMultipleSel):
		w.SetProperty("selectionMode", "QAbstractItemView::MultiSelection")
	case styles.remove(lbsExtendedSel):
		w.SetProperty("selectionMode", "QAbstractItemView::ExtendedSelection")
	default:
		w.SetProperty("selectionMode", "QAbstractItemView::SingleSelection")
	}

	if styles.removeAny(lbsSort, lbsStandard) {
		w.SetProperty("sortingEnabled", "true")
	}

	alwaysOn := styles.remove(lbsDisableNoScroll)
	if styles.remove(wsHScroll) {
		w.SetProperty("horizontalScrollBarPolicy", scrollPolicy(alwaysOn))
	} else {
		w.SetProperty("horizontalScrollBarPolicy", "Qt::ScrollBarAlwaysOff")
	}
	if styles.remove(wsVScroll) {
		w.SetProperty("verticalScrollBarPolicy", scrollPolicy(alwaysOn))
	} else {
		w.SetProperty("verticalScrollBarPolicy", "Qt::ScrollBarAlwaysOff")
	}

	ctrl.Styles = styles.remaining()
	convertStyles(&w, ctrl, c.logger, true)
	return w
}

func scrollPolicy(alwaysOn bool) string {
	if alwaysOn {
		return "Qt::ScrollBarAlwaysOn"
	}
	return "Qt::ScrollBarAsNeeded"
}

func (c *Converter) convertScrollBar(ctrl rc.Control) Widget {
	w := Widget{Class: "QScrollBar"}
	styles := newStyleSet(ctrl.Styles)

	if styles.remove(sbsVert) {
		w.SetProperty("orientation", "Qt::Vertical")
	} else {
		styles.remove(sbsHorz)
		w.SetProperty("orientation", "Qt::Horizontal")
	}
	ctrl.Styles = styles.remaining()
	convertStyles(&w, ctrl, c.logger, false)
	return w
}

// convertControl dispatches an explicit CONTROL by its Win32 common-control
// class name (§4.C: CONTROL ... "msctls_trackbar32" and friends).
func (c *Converter) convertControl(ctrl rc.Control) Widget {
	styles := newStyleSet(ctrl.Styles)
	switch ctrl.ClassName {
	case "msctls_trackbar32":
		w := Widget{Class: "QSlider"}
		if styles.remove(tbsVert) {
			w.SetProperty("orientation", "Qt::Vertical")
		} else {
			w.SetProperty("orientation", "Qt::Horizontal")
		}
		if styles.remove(tbsNoTicks) {
			w.SetProperty("tickPosition", "QSlider::NoTicks")
		} else if styles.removeAny(tbsBoth) {
			w.SetProperty("tickPosition", "QSlider::TicksBothSides")
		} else if styles.removeAny(tbsLeft, tbsTop) {
			w.SetProperty("tickPosition", "QSlider::TicksAbove")
		} else if styles.removeAny(tbsRight, tbsBottom) {
			w.SetProperty("tickPosition", "QSlider::TicksBelow")
		}
		ctrl.Styles = styles.remaining()
		convertStyles(&w, ctrl, c.logger, false)
		return w
	case "msctls_updown32":
		w := Widget{Class: "QSpinBox"}
		convertStyles(&w, ctrl, c.logger, false)
		return w
	case "msctls_progress32":
		w := Widget{Class: "QProgressBar"}
		convertStyles(&w, ctrl, c.logger, false)
		return w
	case "SysListView32":
		return c.convertListWidget(ctrl)
	case "SysTreeView32":
		w := Widget{Class: "QTreeWidget"}
		convertStyles(&w, ctrl, c.logger, false)
		return w
	case "SysTabControl32":
		w := Widget{Class: "QTabWidget"}
		switch {
		case styles.remove(tcsBottom):
			w.SetProperty("tabPosition", "QTabWidget::South")
		case styles.remove(tcsVertical):
			if styles.remove(tcsRight) {
				w.SetProperty("tabPosition", "QTabWidget::East")
			} else {
				w.SetProperty("tabPosition", "QTabWidget::West")
			}
		default:
			w.SetProperty("tabPosition", "QTabWidget::North")
		}
		ctrl.Styles = styles.remaining()
		convertStyles(&w, ctrl, c.logger, false)
		return w
	case "SysMonthCal32":
		w := Widget{Class: "QCalendarWidget"}
		convertStyles(&w, ctrl, c.logger, false)
		return w
	case "SysDateTimePick32":
		w := Widget{Class: "QDateTimeEdit"}
		if styles.remove(dtsLongDate) {
			w.SetProperty("displayFormat", "dddd, MMMM d, yyyy")
		} else if styles.remove(dtsShortDate) {
			w.SetProperty("displayFormat", "M/d/yy")
		}
		w.SetProperty("calendarPopup", "true")
		ctrl.Styles = styles.remaining()
		convertStyles(&w, ctrl, c.logger, false)
		return w
	case "SysIPAddress32":
		w := Widget{Class: "QLineEdit"}
		w.SetProperty("inputMask", "000.000.000.000;_")
		convertStyles(&w, ctrl, c.logger, false)
		return w
	case "SysLink":
		w := Widget{Class: "QLabel"}
		w.SetProperty("text", ctrl.Text)
		w.SetProperty("openExternalLinks", "true")
		convertStyles(&w, ctrl, c.logger, false)
		return w
	case "ComboBoxEx32":
		return c.convertComboBox(ctrl)
	case "RICHEDIT", "RICHEDIT20A", "RICHEDIT20W":
		return c.convertEditText(ctrl)
	case "MfcPropertyGrid":
		w := Widget{Class: "QTreeWidget"}
		convertStyles(&w, ctrl, c.logger, false)
		return w
	default:
		c.logger.Criticalf("%s: unknown CONTROL class: %s", ctrl.ID, ctrl.ClassName)
		return Widget{Class: "QWidget"}
	}
}

// adjustHierarchy reparents controls whose geometry is fully contained in a
// sibling's, smallest-area match first, translating the child's geometry
// into the parent's local coordinate space (§4.C hierarchy adjustment).
func (c *Converter) adjustHierarchy(widgets []*Widget) []*Widget {
	if len(widgets) == 0 {
		return nil
	}
	ordered := make([]*Widget, len(widgets))
	copy(ordered, widgets)
	sortByArea(ordered)

	absorbed := make(map[int]bool, len(ordered))
	for i := range ordered {
		for j := i + 1; j < len(ordered); j++ {
			if absorbed[i] {
				break
			}
			if contains(ordered[j].Geometry, ordered[i].Geometry) {
				child := ordered[i]
				child.Geometry.X -= ordered[j].Geometry.X
				child.Geometry.Y -= ordered[j].Geometry.Y
				ordered[j].Children = append(ordered[j].Children, child)
				absorbed[i] = true
			}
		}
	}

	result := make([]*Widget, 0, len(ordered))
	for i, w := range ordered {
		if !absorbed[i] {
			result = append(result, w)
		}
	}
	return result
}

func sortByArea(widgets []*Widget) {
	area := func(w *Widget) int { return w.Geometry.W * w.Geometry.H }
	for i := 1; i < len(widgets); i++ {
		for j := i; j > 0 && area(widgets[j]) < area(widgets[j-1]); j-- {
			widgets[j], widgets[j-1] = widgets[j-1], widgets[j]
		}
	}
}

// contains reports whether outer fully encloses inner (Qt QRect::contains
// semantics on the scaled geometry rectangles).
func contains(outer, inner Geometry) bool {
	return inner.X >= outer.X && inner.Y >= outer.Y &&
		inner.X+inner.W <= outer.X+outer.W &&
		inner.Y+inner.H <= outer.Y+outer.H
}

// String renders a widget tree for debugging/snapshot comparisons.
func (w *Widget) String() string {
	return fmt.Sprintf("%s(%s) %+v", w.Class, w.Name, w.Geometry)
}
