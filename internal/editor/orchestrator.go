// Package editor manages the dialog stack of the record-editing UI: which
// dialog is visible, its form buffer, and suspend/resume around the nested
// pickers. Buffers stay isolated from committed state until confirm.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/claude/trainlog/internal/catalog"
	"github.com/claude/trainlog/internal/models"
	"github.com/claude/trainlog/internal/session"
	"github.com/google/uuid"
)

var (
	// ErrDialogOpen rejects opening a dialog while another is visible.
	ErrDialogOpen = errors.New("another dialog is already open")
	// ErrNoDialog rejects buffer access or confirm without an open dialog.
	ErrNoDialog = errors.New("no dialog of that kind is open")
	// ErrBadToken rejects a resume with an unknown or stale token.
	ErrBadToken = errors.New("unknown resume token")
	// ErrPickerParent rejects opening a picker from a dialog that has no
	// gym or menu field.
	ErrPickerParent = errors.New("active dialog cannot host this picker")
)

// DialogKind identifies the visible dialog.
type DialogKind int

const (
	DialogNone DialogKind = iota
	DialogStart
	DialogFinish
	DialogEditHistory
	DialogCreateMenu
	DialogMenuPicker
	DialogGymPicker
)

// StartBuffer is the start-dialog form state. A nil StartedAt means "now";
// a set value is a retroactive entry.
type StartBuffer struct {
	StartedAt    *time.Time
	Gym          *models.Gym
	AutoDetected bool
}

// FinishBuffer is the finish-dialog form state. Entries begin empty and are
// built up through the menu picker.
type FinishBuffer struct {
	SessionID string
	Entries   []models.StrengthEntry
	Cardio    []models.CardioEntry
	Partners  []models.Partner
}

// EditBuffer is the edit-history form state, seeded from the hydrated
// session being edited.
type EditBuffer struct {
	SessionID string
	Gym       *models.Gym
	Entries   []models.StrengthEntry
	Cardio    []models.CardioEntry
	Partners  []models.Partner
}

// CreateMenuBuffer is the create-menu form state. BodypartID is ignored when
// Cardio is set.
type CreateMenuBuffer struct {
	Name       string
	BodypartID string
	Cardio     bool
}

// SessionOps is the slice of the session controller the orchestrator drives.
type SessionOps interface {
	Start(ctx context.Context, gym *models.Gym, autoDetected bool) (string, error)
	StartAt(ctx context.Context, startedAt time.Time, gym *models.Gym, autoDetected bool) (string, error)
	Finish(ctx context.Context, sessionID string, entries []models.StrengthEntry, cardio []models.CardioEntry, partners []models.Partner) error
	Edit(ctx context.Context, sessionID string, gym *models.Gym, entries []models.StrengthEntry, cardio []models.CardioEntry, partners []models.Partner) error
}

// Compile-time check: *session.Controller satisfies SessionOps.
var _ SessionOps = (*session.Controller)(nil)

// MenuOps is the slice of the menu catalog the orchestrator drives.
type MenuOps interface {
	Create(ctx context.Context, name, bodypartID string, cardio bool) error
}

// Compile-time check: *catalog.Catalog satisfies MenuOps.
var _ MenuOps = (*catalog.Catalog)(nil)

// suspension remembers which dialog a picker hid. The token makes resume a
// single code path no matter which parent suspended.
type suspension struct {
	token  string
	parent DialogKind
}

// Orchestrator owns the dialog stack. At most one dialog is visible; a
// picker opened from a parent dialog suspends the parent (hidden, state
// intact) and resuming restores it with the picked value merged in.
type Orchestrator struct {
	mu       sync.Mutex
	sessions SessionOps
	menus    MenuOps
	log      *slog.Logger

	active     DialogKind
	start      *StartBuffer
	finish     *FinishBuffer
	edit       *EditBuffer
	createMenu *CreateMenuBuffer

	// committed is the snapshot taken when the active dialog opened;
	// unsaved-changes detection compares against it by deep equality.
	committed any

	suspended *suspension
}

// New creates an Orchestrator.
func New(sessions SessionOps, menus MenuOps, log *slog.Logger) *Orchestrator {
	return &Orchestrator{sessions: sessions, menus: menus, log: log}
}

// ActiveDialog returns the currently visible dialog kind.
func (o *Orchestrator) ActiveDialog() DialogKind {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// --- Opening dialogs ---

// OpenStart shows the start dialog with an empty buffer.
func (o *Orchestrator) OpenStart() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != DialogNone {
		return ErrDialogOpen
	}
	o.active = DialogStart
	o.start = &StartBuffer{}
	o.committed = *o.start
	return nil
}

// OpenFinish shows the finish dialog for the active session. Entries start
// empty; the user picks menus and records sets inside the dialog.
func (o *Orchestrator) OpenFinish(sessionID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != DialogNone {
		return ErrDialogOpen
	}
	o.active = DialogFinish
	o.finish = &FinishBuffer{SessionID: sessionID}
	o.committed = cloneFinish(*o.finish)
	return nil
}

// OpenEditHistory shows the edit dialog seeded from a hydrated session.
func (o *Orchestrator) OpenEditHistory(sess models.TrainingSession) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != DialogNone {
		return ErrDialogOpen
	}
	buf := EditBuffer{
		SessionID: sess.PubID,
		Gym:       cloneGym(sess.Gym),
		Entries:   cloneEntries(sess.Menus),
		Cardio:    cloneCardio(sess.CardioMenus),
		Partners:  append([]models.Partner(nil), sess.Partners...),
	}
	o.active = DialogEditHistory
	o.edit = &buf
	o.committed = cloneEdit(buf)
	return nil
}

// OpenCreateMenu shows the create-menu dialog.
func (o *Orchestrator) OpenCreateMenu() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != DialogNone {
		return ErrDialogOpen
	}
	o.active = DialogCreateMenu
	o.createMenu = &CreateMenuBuffer{}
	o.committed = *o.createMenu
	return nil
}

// --- Buffer access ---

// StartState returns a copy of the start buffer.
func (o *Orchestrator) StartState() (StartBuffer, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.start == nil {
		return StartBuffer{}, ErrNoDialog
	}
	return *o.start, nil
}

// SetStartState replaces the start buffer.
func (o *Orchestrator) SetStartState(buf StartBuffer) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.start == nil {
		return ErrNoDialog
	}
	*o.start = buf
	return nil
}

// FinishState returns a copy of the finish buffer.
func (o *Orchestrator) FinishState() (FinishBuffer, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.finish == nil {
		return FinishBuffer{}, ErrNoDialog
	}
	return cloneFinish(*o.finish), nil
}

// SetFinishState replaces the finish buffer.
func (o *Orchestrator) SetFinishState(buf FinishBuffer) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.finish == nil {
		return ErrNoDialog
	}
	*o.finish = cloneFinish(buf)
	return nil
}

// EditState returns a copy of the edit buffer.
func (o *Orchestrator) EditState() (EditBuffer, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.edit == nil {
		return EditBuffer{}, ErrNoDialog
	}
	return cloneEdit(*o.edit), nil
}

// SetEditState replaces the edit buffer.
func (o *Orchestrator) SetEditState(buf EditBuffer) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.edit == nil {
		return ErrNoDialog
	}
	*o.edit = cloneEdit(buf)
	return nil
}

// CreateMenuState returns a copy of the create-menu buffer.
func (o *Orchestrator) CreateMenuState() (CreateMenuBuffer, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.createMenu == nil {
		return CreateMenuBuffer{}, ErrNoDialog
	}
	return *o.createMenu, nil
}

// SetCreateMenuState replaces the create-menu buffer.
func (o *Orchestrator) SetCreateMenuState(buf CreateMenuBuffer) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.createMenu == nil {
		return ErrNoDialog
	}
	*o.createMenu = buf
	return nil
}

// Dirty reports whether the active (or suspended) dialog's buffer differs
// from the snapshot taken when it opened. Deep equality, not a dirty flag:
// reverting a field back to its original value clears the indicator.
func (o *Orchestrator) Dirty() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	kind := o.active
	if o.suspended != nil {
		kind = o.suspended.parent
	}
	switch kind {
	case DialogStart:
		return !reflect.DeepEqual(*o.start, o.committed)
	case DialogFinish:
		return !reflect.DeepEqual(cloneFinish(*o.finish), o.committed)
	case DialogEditHistory:
		return !reflect.DeepEqual(cloneEdit(*o.edit), o.committed)
	case DialogCreateMenu:
		return !reflect.DeepEqual(*o.createMenu, o.committed)
	default:
		return false
	}
}

// Cancel discards the visible dialog and its buffer. Cancelling a picker
// resumes its parent instead; use Resume for that.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active == DialogGymPicker || o.active == DialogMenuPicker {
		// The parent's buffer survives; only the picker closes.
		o.resumeLocked()
		return
	}
	o.clearLocked()
}

func (o *Orchestrator) clearLocked() {
	o.active = DialogNone
	o.start = nil
	o.finish = nil
	o.edit = nil
	o.createMenu = nil
	o.committed = nil
	o.suspended = nil
}

// --- Pickers ---

// OpenGymPicker suspends the start or edit dialog and shows the gym picker.
// The returned token identifies the suspension for Resume/ResumeWithGym.
func (o *Orchestrator) OpenGymPicker() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != DialogStart && o.active != DialogEditHistory {
		return "", ErrPickerParent
	}
	return o.suspendLocked(DialogGymPicker), nil
}

// OpenMenuPicker suspends the finish or edit dialog and shows the menu
// picker.
func (o *Orchestrator) OpenMenuPicker() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != DialogFinish && o.active != DialogEditHistory {
		return "", ErrPickerParent
	}
	return o.suspendLocked(DialogMenuPicker), nil
}

func (o *Orchestrator) suspendLocked(picker DialogKind) string {
	token := uuid.NewString()
	o.suspended = &suspension{token: token, parent: o.active}
	o.active = picker
	o.log.Debug("dialog suspended", "parent", o.suspended.parent, "picker", picker)
	return token
}

// Resume closes the picker without a selection. The parent dialog reappears
// with its buffer exactly as it was.
func (o *Orchestrator) Resume(token string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.checkToken(token); err != nil {
		return err
	}
	o.resumeLocked()
	return nil
}

// ResumeWithGym closes the gym picker and merges the selection into the
// parent buffer. A nil gym clears the parent's gym field.
func (o *Orchestrator) ResumeWithGym(token string, gym *models.Gym) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.checkToken(token); err != nil {
		return err
	}
	if o.active != DialogGymPicker {
		return ErrNoDialog
	}

	switch o.suspended.parent {
	case DialogStart:
		o.start.Gym = cloneGym(gym)
	case DialogEditHistory:
		o.edit.Gym = cloneGym(gym)
	}
	o.resumeLocked()
	return nil
}

// ResumeWithStrengthMenu closes the menu picker and appends a strength entry
// with one placeholder set to the parent buffer.
func (o *Orchestrator) ResumeWithStrengthMenu(token string, menu models.MenuDefinition) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.checkToken(token); err != nil {
		return err
	}
	if o.active != DialogMenuPicker {
		return ErrNoDialog
	}

	entry := models.StrengthEntry{Menu: menu, Sets: []models.SetRecord{{}}}
	switch o.suspended.parent {
	case DialogFinish:
		o.finish.Entries = append(o.finish.Entries, entry)
	case DialogEditHistory:
		o.edit.Entries = append(o.edit.Entries, entry)
	}
	o.resumeLocked()
	return nil
}

// ResumeWithCardioMenu closes the menu picker and appends a cardio entry to
// the parent buffer.
func (o *Orchestrator) ResumeWithCardioMenu(token string, menu models.CardioMenuDefinition) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.checkToken(token); err != nil {
		return err
	}
	if o.active != DialogMenuPicker {
		return ErrNoDialog
	}

	entry := models.CardioEntry{Menu: menu}
	switch o.suspended.parent {
	case DialogFinish:
		o.finish.Cardio = append(o.finish.Cardio, entry)
	case DialogEditHistory:
		o.edit.Cardio = append(o.edit.Cardio, entry)
	}
	o.resumeLocked()
	return nil
}

func (o *Orchestrator) checkToken(token string) error {
	if o.suspended == nil || o.suspended.token != token {
		return ErrBadToken
	}
	return nil
}

func (o *Orchestrator) resumeLocked() {
	if o.suspended == nil {
		return
	}
	o.active = o.suspended.parent
	o.suspended = nil
	o.log.Debug("dialog resumed", "parent", o.active)
}

// --- Confirms ---
//
// Each confirm copies the buffer out, releases the lock for the network
// call, and closes the dialog only on success. Failure leaves the dialog
// open with the buffer intact so the user can retry.

// ConfirmStart submits the start dialog.
func (o *Orchestrator) ConfirmStart(ctx context.Context) (string, error) {
	o.mu.Lock()
	if o.active != DialogStart {
		o.mu.Unlock()
		return "", ErrNoDialog
	}
	buf := *o.start
	o.mu.Unlock()

	var (
		id  string
		err error
	)
	if buf.StartedAt != nil {
		id, err = o.sessions.StartAt(ctx, *buf.StartedAt, buf.Gym, buf.AutoDetected)
	} else {
		id, err = o.sessions.Start(ctx, buf.Gym, buf.AutoDetected)
	}
	if err != nil {
		return "", err
	}

	o.mu.Lock()
	o.clearLocked()
	o.mu.Unlock()
	return id, nil
}

// ConfirmFinish submits the finish dialog.
func (o *Orchestrator) ConfirmFinish(ctx context.Context) error {
	o.mu.Lock()
	if o.active != DialogFinish {
		o.mu.Unlock()
		return ErrNoDialog
	}
	buf := cloneFinish(*o.finish)
	o.mu.Unlock()

	if err := o.sessions.Finish(ctx, buf.SessionID, buf.Entries, buf.Cardio, buf.Partners); err != nil {
		return err
	}

	o.mu.Lock()
	o.clearLocked()
	o.mu.Unlock()
	return nil
}

// ConfirmEdit submits the edit dialog.
func (o *Orchestrator) ConfirmEdit(ctx context.Context) error {
	o.mu.Lock()
	if o.active != DialogEditHistory {
		o.mu.Unlock()
		return ErrNoDialog
	}
	buf := cloneEdit(*o.edit)
	o.mu.Unlock()

	if err := o.sessions.Edit(ctx, buf.SessionID, buf.Gym, buf.Entries, buf.Cardio, buf.Partners); err != nil {
		return err
	}

	o.mu.Lock()
	o.clearLocked()
	o.mu.Unlock()
	return nil
}

// ConfirmCreateMenu submits the create-menu dialog.
func (o *Orchestrator) ConfirmCreateMenu(ctx context.Context) error {
	o.mu.Lock()
	if o.active != DialogCreateMenu {
		o.mu.Unlock()
		return ErrNoDialog
	}
	buf := *o.createMenu
	o.mu.Unlock()

	if err := o.menus.Create(ctx, buf.Name, buf.BodypartID, buf.Cardio); err != nil {
		return err
	}

	o.mu.Lock()
	o.clearLocked()
	o.mu.Unlock()
	return nil
}
