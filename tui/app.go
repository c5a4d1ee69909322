package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"numba-booking-cli/model"
	"numba-booking-cli/service"
	"numba-booking-cli/store"
)

type appState int

const (
	stateWelcome appState = iota
	stateSelectDates
	stateLoadingAvailability
	stateSelectRoom
	stateGuestDetails
	stateSubmitting
	stateError
)

const (
	fieldCheckIn = iota
	fieldCheckOut
)

const (
	guestFieldName = iota
	guestFieldEmail
	guestFieldPhone
	guestFieldGuests
	guestFieldRequests
	guestFieldCount
)

const fallbackSubmitError = "Failed to create booking. Please try again."

type availabilityMsg struct {
	seq     int
	results []model.AvailabilityResult
	err     error
}

type reservationMsg struct {
	seq          int
	confirmation model.ReservationConfirmation
	err          error
}

type appModel struct {
	client *service.Client
	now    func() time.Time

	state appState
	err   error
	// retryable batch failures return the user to the date stage; the retry
	// action re-runs the same query with the same window.
	errRetryable bool

	width  int
	height int

	dateInputs []textinput.Model
	dateFocus  int
	formErr    string

	window       model.StayWindow
	results      []model.AvailabilityResult
	roomList     list.Model
	roomErr      string
	selected     model.AvailabilityResult
	hasSelection bool

	guestInputs []textinput.Model
	guestFocus  int
	guestErr    string

	submitting bool
	// querySeq tags every async command; responses carrying an old sequence
	// are discarded, so nothing lands after the wizard closed or the dates
	// changed.
	querySeq int

	notice  string
	spinner spinner.Model
}

func New() tea.Model {
	return newApp(service.NewClient(nil))
}

func newApp(client *service.Client) appModel {
	m := appModel{
		client: client,
		now:    time.Now,
		state:  stateWelcome,
	}

	checkIn := textinput.New()
	checkIn.Placeholder = "YYYY-MM-DD"
	checkIn.CharLimit = 10
	checkIn.Width = 12
	checkOut := textinput.New()
	checkOut.Placeholder = "YYYY-MM-DD"
	checkOut.CharLimit = 10
	checkOut.Width = 12
	m.dateInputs = []textinput.Model{checkIn, checkOut}

	m.roomList = newList("Choose Your Room Type")

	placeholders := []string{"Full name", "you@example.com", "Phone (optional)", "1", "Special requests (optional)"}
	limits := []int{80, 120, 30, 2, 200}
	m.guestInputs = make([]textinput.Model, guestFieldCount)
	for i := range m.guestInputs {
		input := textinput.New()
		input.Placeholder = placeholders[i]
		input.CharLimit = limits[i]
		input.Width = 40
		m.guestInputs[i] = input
	}
	m.guestInputs[guestFieldGuests].Width = 4

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	return m
}

func (m appModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeList()
		return m, nil

	case tea.KeyMsg:
		next, cmd, handled := m.handleKey(msg)
		if handled {
			return next, cmd
		}
		// fallthrough to component update

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.isLoadingState() {
			return m, cmd
		}
		return m, nil

	case availabilityMsg:
		if msg.seq != m.querySeq {
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err
			m.errRetryable = true
			m.state = stateError
			return m, nil
		}
		m.results = msg.results
		m.roomList.SetItems(buildRoomItems(msg.results))
		m.roomList.Select(0)
		m.roomErr = ""
		m.state = stateSelectRoom
		return m, nil

	case reservationMsg:
		if msg.seq != m.querySeq {
			return m, nil
		}
		m.submitting = false
		if msg.err != nil {
			m.guestErr = submissionErrorMessage(msg.err)
			m.state = stateGuestDetails
			return m, nil
		}
		_ = store.RememberGuest(store.RecentGuest{
			FullName: strings.TrimSpace(m.guestInputs[guestFieldName].Value()),
			Email:    strings.TrimSpace(m.guestInputs[guestFieldEmail].Value()),
			Phone:    strings.TrimSpace(m.guestInputs[guestFieldPhone].Value()),
		})
		notice := msg.confirmation.Message
		if notice == "" {
			notice = "Booking request submitted! You will receive a confirmation email shortly."
		}
		m.closeWizard(notice)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case stateSelectDates:
		m.dateInputs[m.dateFocus], cmd = m.dateInputs[m.dateFocus].Update(msg)
	case stateSelectRoom:
		m.roomList, cmd = m.roomList.Update(msg)
	case stateGuestDetails:
		m.guestInputs[m.guestFocus], cmd = m.guestInputs[m.guestFocus].Update(msg)
	}
	return m, cmd
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit, true
	case "ctrl+q":
		if m.state != stateWelcome {
			m.closeWizard("")
			return m, nil, true
		}
		return m, tea.Quit, true
	case "esc":
		return m.goBack()
	}

	switch m.state {
	case stateWelcome:
		switch msg.String() {
		case "enter", "b":
			m.openWizard()
			return m, textinput.Blink, true
		case "q":
			return m, tea.Quit, true
		}

	case stateSelectDates:
		switch msg.String() {
		case "tab", "down":
			m.focusDateField((m.dateFocus + 1) % len(m.dateInputs))
			return m, textinput.Blink, true
		case "shift+tab", "up":
			m.focusDateField((m.dateFocus + len(m.dateInputs) - 1) % len(m.dateInputs))
			return m, textinput.Blink, true
		case "enter":
			return m.startAvailabilityQuery()
		}

	case stateSelectRoom:
		if msg.Type == tea.KeyEnter {
			return m.selectRoom()
		}

	case stateGuestDetails:
		switch msg.String() {
		case "tab", "down":
			m.focusGuestField((m.guestFocus + 1) % len(m.guestInputs))
			return m, textinput.Blink, true
		case "shift+tab", "up":
			m.focusGuestField((m.guestFocus + len(m.guestInputs) - 1) % len(m.guestInputs))
			return m, textinput.Blink, true
		case "ctrl+s":
			return m.submitReservation()
		case "enter":
			if m.guestFocus == len(m.guestInputs)-1 {
				return m.submitReservation()
			}
			m.focusGuestField(m.guestFocus + 1)
			return m, textinput.Blink, true
		}

	case stateSubmitting:
		// confirm is disabled while a submission is in flight
		if msg.String() == "enter" || msg.String() == "ctrl+s" {
			return m, nil, true
		}

	case stateError:
		if msg.Type == tea.KeyEnter && m.errRetryable {
			return m.retryAvailabilityQuery()
		}
	}

	return m, nil, false
}

func (m appModel) goBack() (tea.Model, tea.Cmd, bool) {
	switch m.state {
	case stateWelcome:
		return m, tea.Quit, true
	case stateSelectDates:
		m.closeWizard("")
	case stateLoadingAvailability:
		// abandon the in-flight query; its response arrives stale
		m.querySeq++
		m.state = stateSelectDates
	case stateSelectRoom:
		m.discardAvailability()
		m.state = stateSelectDates
		m.focusDateField(fieldCheckIn)
		return m, textinput.Blink, true
	case stateGuestDetails:
		m.selected = model.AvailabilityResult{}
		m.hasSelection = false
		m.guestErr = ""
		m.state = stateSelectRoom
	case stateSubmitting:
		// the submission owns this stage until it settles
	case stateError:
		m.err = nil
		m.errRetryable = false
		m.state = stateSelectDates
		m.focusDateField(fieldCheckIn)
		return m, textinput.Blink, true
	}
	return m, nil, true
}

func (m *appModel) openWizard() {
	m.notice = ""
	m.state = stateSelectDates
	m.focusDateField(fieldCheckIn)
}

// closeWizard tears the session down from any state. The next open starts
// from a draft identical to a freshly created one.
func (m *appModel) closeWizard(notice string) {
	m.reset()
	m.notice = notice
	m.state = stateWelcome
}

func (m *appModel) reset() {
	m.querySeq++
	m.err = nil
	m.errRetryable = false
	m.formErr = ""
	m.roomErr = ""
	m.guestErr = ""
	m.window = model.StayWindow{}
	m.discardAvailability()
	m.submitting = false
	for i := range m.dateInputs {
		m.dateInputs[i].SetValue("")
		m.dateInputs[i].Blur()
	}
	m.dateFocus = fieldCheckIn
	for i := range m.guestInputs {
		m.guestInputs[i].SetValue("")
		m.guestInputs[i].Blur()
	}
	m.guestFocus = guestFieldName
}

// discardAvailability drops the fetched batch and the room selection. Results
// are never reused across date edits; they are recomputed from scratch.
func (m *appModel) discardAvailability() {
	m.querySeq++
	m.results = nil
	m.roomList.SetItems(nil)
	m.roomErr = ""
	m.selected = model.AvailabilityResult{}
	m.hasSelection = false
}

func (m *appModel) focusDateField(index int) {
	for i := range m.dateInputs {
		m.dateInputs[i].Blur()
	}
	m.dateFocus = index
	m.dateInputs[index].Focus()
}

func (m *appModel) focusGuestField(index int) {
	for i := range m.guestInputs {
		m.guestInputs[i].Blur()
	}
	m.guestFocus = index
	m.guestInputs[index].Focus()
}

func (m appModel) startAvailabilityQuery() (tea.Model, tea.Cmd, bool) {
	window, problem := m.parseWindow()
	if problem != "" {
		m.formErr = problem
		return m, nil, true
	}
	m.formErr = ""
	m.window = window
	m.querySeq++
	m.state = stateLoadingAvailability
	return m, tea.Batch(m.fetchAvailabilityCmd(window, m.querySeq), m.spinner.Tick), true
}

func (m appModel) retryAvailabilityQuery() (tea.Model, tea.Cmd, bool) {
	m.err = nil
	m.errRetryable = false
	m.querySeq++
	m.state = stateLoadingAvailability
	return m, tea.Batch(m.fetchAvailabilityCmd(m.window, m.querySeq), m.spinner.Tick), true
}

func (m appModel) parseWindow() (model.StayWindow, string) {
	checkIn := strings.TrimSpace(m.dateInputs[fieldCheckIn].Value())
	checkOut := strings.TrimSpace(m.dateInputs[fieldCheckOut].Value())
	if checkIn == "" || checkOut == "" {
		return model.StayWindow{}, "Please select both check-in and check-out dates"
	}
	in, err := time.Parse(time.DateOnly, checkIn)
	if err != nil {
		return model.StayWindow{}, "Check-in date must use the YYYY-MM-DD form"
	}
	out, err := time.Parse(time.DateOnly, checkOut)
	if err != nil {
		return model.StayWindow{}, "Check-out date must use the YYYY-MM-DD form"
	}
	window := model.StayWindow{CheckIn: in, CheckOut: out}
	if err := window.ValidateAt(m.now()); err != nil {
		return model.StayWindow{}, windowErrorCopy(err)
	}
	return window, ""
}

func windowErrorCopy(err error) string {
	switch {
	case errors.Is(err, model.ErrCheckOutNotAfter):
		return "Check-out date must be after check-in date"
	case errors.Is(err, model.ErrCheckInTooEarly):
		return "Check-in can be no earlier than tomorrow"
	case errors.Is(err, model.ErrDatesRequired):
		return "Please select both check-in and check-out dates"
	default:
		return err.Error()
	}
}

func (m appModel) selectRoom() (tea.Model, tea.Cmd, bool) {
	item, ok := m.roomList.SelectedItem().(roomItem)
	if !ok {
		return m, nil, true
	}
	if !item.result.Available {
		m.roomErr = "This room type is not available for the selected dates. Choose another room type or change your dates."
		return m, nil, true
	}
	m.roomErr = ""
	m.selected = item.result
	m.hasSelection = true
	m.prefillGuestForm()
	m.state = stateGuestDetails
	m.focusGuestField(guestFieldName)
	return m, textinput.Blink, true
}

func (m *appModel) prefillGuestForm() {
	if m.guestInputs[guestFieldGuests].Value() == "" {
		m.guestInputs[guestFieldGuests].SetValue("1")
	}
	if m.guestInputs[guestFieldName].Value() != "" {
		return
	}
	recents, err := store.LoadRecentGuests()
	if err != nil || len(recents) == 0 {
		return
	}
	m.guestInputs[guestFieldName].SetValue(recents[0].FullName)
	m.guestInputs[guestFieldEmail].SetValue(recents[0].Email)
	m.guestInputs[guestFieldPhone].SetValue(recents[0].Phone)
}

func (m appModel) submitReservation() (tea.Model, tea.Cmd, bool) {
	if m.submitting || !m.hasSelection {
		return m, nil, true
	}
	guest, problem := m.parseGuestInfo()
	if problem != "" {
		m.guestErr = problem
		return m, nil, true
	}
	m.guestErr = ""
	m.submitting = true
	m.state = stateSubmitting
	req := model.NewReservationRequest(guest, m.selected.RoomType, m.window)
	return m, tea.Batch(m.submitReservationCmd(req, m.querySeq), m.spinner.Tick), true
}

func (m appModel) parseGuestInfo() (model.GuestInfo, string) {
	guest := model.GuestInfo{
		FullName:        m.guestInputs[guestFieldName].Value(),
		Email:           m.guestInputs[guestFieldEmail].Value(),
		Phone:           m.guestInputs[guestFieldPhone].Value(),
		SpecialRequests: m.guestInputs[guestFieldRequests].Value(),
	}
	countText := strings.TrimSpace(m.guestInputs[guestFieldGuests].Value())
	if countText == "" {
		guest.GuestCount = 1
	} else {
		count, err := strconv.Atoi(countText)
		if err != nil {
			return guest, "Number of guests must be a whole number"
		}
		guest.GuestCount = count
	}
	if err := guest.Validate(m.selected.RoomType.MaxGuests()); err != nil {
		return guest, guestErrorCopy(err)
	}
	return guest, ""
}

func guestErrorCopy(err error) string {
	switch {
	case errors.Is(err, model.ErrNameRequired), errors.Is(err, model.ErrEmailRequired):
		return "Please fill in your name and email"
	case errors.Is(err, model.ErrEmailInvalid):
		return "Please enter a valid email address"
	default:
		return err.Error()
	}
}

func (m appModel) fetchAvailabilityCmd(window model.StayWindow, seq int) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx := context.Background()
		types, err := loadRoomCatalog(ctx, client)
		if err != nil {
			return availabilityMsg{seq: seq, err: err}
		}
		return availabilityMsg{seq: seq, results: client.CheckAvailabilityForTypes(ctx, window, types)}
	}
}

func loadRoomCatalog(ctx context.Context, client *service.Client) ([]model.RoomType, error) {
	if cached, fresh, err := store.LoadRoomTypeCache(); err == nil && fresh && len(cached) > 0 {
		return cached, nil
	}
	types, err := client.ListRoomTypes(ctx)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, errors.New("no room types available")
	}
	_ = store.SaveRoomTypeCache(types)
	return types, nil
}

func (m appModel) submitReservationCmd(req model.ReservationRequest, seq int) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		confirmation, err := client.CreateReservation(context.Background(), req)
		return reservationMsg{seq: seq, confirmation: confirmation, err: err}
	}
}

func submissionErrorMessage(err error) string {
	if msg := service.ErrorMessage(err); msg != "" {
		return msg
	}
	return fallbackSubmitError
}

func (m appModel) isLoadingState() bool {
	return m.state == stateLoadingAvailability || m.state == stateSubmitting
}

// summaryTotal recomputes the stay total from the current window and
// selection on every render; the total is never cached.
func (m appModel) summaryTotal() model.Decimal {
	return model.TotalPrice(m.window, m.selected.RoomType, m.selected.PricePerNight)
}

type roomItem struct {
	result model.AvailabilityResult
}

func (r roomItem) Title() string {
	return r.result.RoomType.Name
}

func (r roomItem) Description() string {
	parts := []string{
		fmt.Sprintf("$%s/night", r.result.PricePerNight),
		fmt.Sprintf("up to %d guests", r.result.RoomType.MaxGuests()),
	}
	switch {
	case r.result.Available:
		parts = append(parts, fmt.Sprintf("%d available", r.result.AvailableCount))
	case r.result.ErrorMessage != "":
		parts = append(parts, "unavailable: "+r.result.ErrorMessage)
	default:
		parts = append(parts, "fully booked")
	}
	if desc := strings.TrimSpace(r.result.RoomType.Description); desc != "" {
		parts = append(parts, desc)
	}
	return strings.Join(parts, " • ")
}

func (r roomItem) FilterValue() string {
	return strings.ToLower(r.result.RoomType.Name)
}

func buildRoomItems(results []model.AvailabilityResult) []list.Item {
	items := make([]list.Item, 0, len(results))
	for _, result := range results {
		items = append(items, roomItem{result: result})
	}
	return items
}

func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	return l
}

func (m *appModel) resizeList() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := m.height - 8
	if h < 6 {
		h = 6
	}
	m.roomList.SetSize(m.width, h)
}

var (
	labelStyle  = lipgloss.NewStyle().Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 2).
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("3")).
			MarginTop(1)
)

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

func (m appModel) View() string {
	header := m.headerView()
	switch m.state {
	case stateWelcome:
		return header + "\n\n" + m.welcomeView()
	case stateSelectDates:
		return header + "\n\n" + m.dateView()
	case stateLoadingAvailability, stateSubmitting:
		return header + "\n\n" + m.loadingView()
	case stateSelectRoom:
		return header + "\n\n" + m.roomView()
	case stateGuestDetails:
		return header + "\n\n" + m.guestView()
	case stateError:
		return header + "\n\n" + m.errorView()
	default:
		return header
	}
}

func (m appModel) headerView() string {
	title := lipgloss.NewStyle().Bold(true).Render("Hotel Numba • Book Your Stay")
	sub := []string{}
	switch m.state {
	case stateSelectDates:
		sub = append(sub, "Step 1 of 3 • Select Your Dates")
	case stateLoadingAvailability, stateSelectRoom:
		sub = append(sub, "Step 2 of 3 • Choose Your Room Type")
	case stateGuestDetails, stateSubmitting:
		sub = append(sub, "Step 3 of 3 • Complete Booking")
	}
	if !m.window.CheckIn.IsZero() && m.state != stateSelectDates {
		sub = append(sub, fmt.Sprintf("%s → %s (%d nights)", m.window.CheckInISO(), m.window.CheckOutISO(), m.window.Nights()))
	}
	meta := strings.Join(sub, " • ")
	if meta != "" {
		meta = "\n" + lipgloss.NewStyle().Faint(true).Render(meta)
	}

	hints := "ctrl+c quit"
	switch m.state {
	case stateWelcome:
		hints = "enter book a stay • q quit"
	case stateSelectDates:
		hints = "tab next field • enter check availability • esc close • ctrl+c quit"
	case stateSelectRoom:
		hints = "enter select room • esc change dates • ctrl+q close • ctrl+c quit"
	case stateGuestDetails:
		hints = "tab next field • ctrl+s confirm booking • esc back to rooms • ctrl+q close"
	case stateError:
		if m.errRetryable {
			hints = "enter retry • esc back • ctrl+c quit"
		} else {
			hints = "esc back • ctrl+c quit"
		}
	}
	return title + meta + "\n" + hint(hints)
}

func (m appModel) welcomeView() string {
	lines := []string{
		"Rooms, coffee and a quiet garden.",
		"",
		hint("Press enter to check availability and book a stay."),
	}
	if m.notice != "" {
		lines = append([]string{noticeStyle.Render(m.notice), ""}, lines...)
	}
	return strings.Join(lines, "\n")
}

func (m appModel) dateView() string {
	rows := []string{
		labelStyle.Render("Check-in date"),
		m.dateInputs[fieldCheckIn].View(),
		"",
		labelStyle.Render("Check-out date"),
		m.dateInputs[fieldCheckOut].View(),
	}
	if m.formErr != "" {
		rows = append(rows, "", errStyle.Render(m.formErr))
	}
	rows = append(rows, "", hint("Check-in opens tomorrow; stays are at least one night."))
	return strings.Join(rows, "\n")
}

func (m appModel) loadingView() string {
	title := "Checking availability"
	if m.state == stateSubmitting {
		title = "Submitting your booking request"
	}
	return fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), title, hint("Talking to the hotel..."))
}

func (m appModel) roomView() string {
	view := m.roomList.View()
	if noneAvailable(m.results) {
		view += "\n" + hint("No rooms are available for these dates. Press esc to try different dates.")
	}
	if m.roomErr != "" {
		view += "\n" + errStyle.Render(m.roomErr)
	}
	return view
}

func noneAvailable(results []model.AvailabilityResult) bool {
	for _, result := range results {
		if result.Available {
			return false
		}
	}
	return len(results) > 0
}

func (m appModel) guestView() string {
	labels := []string{"Full name *", "Email *", "Phone", "Number of guests", "Special requests"}
	rows := make([]string, 0, len(labels)*2+6)
	for i, label := range labels {
		rows = append(rows, labelStyle.Render(label), m.guestInputs[i].View())
	}
	rows = append(rows, m.summaryView())
	if m.guestErr != "" {
		rows = append(rows, errStyle.Render(m.guestErr))
	}
	rows = append(rows, hint("Your booking will be confirmed by our staff; you will receive an email once confirmed."))
	return strings.Join(rows, "\n")
}

func (m appModel) summaryView() string {
	guests := strings.TrimSpace(m.guestInputs[guestFieldGuests].Value())
	if guests == "" {
		guests = "1"
	}
	lines := []string{
		labelStyle.Render("Booking Summary"),
		fmt.Sprintf("Room type  %s", m.selected.RoomType.Name),
		fmt.Sprintf("Check-in   %s", m.window.CheckInISO()),
		fmt.Sprintf("Check-out  %s", m.window.CheckOutISO()),
		fmt.Sprintf("Nights     %d", m.window.Nights()),
		fmt.Sprintf("Guests     %s", guests),
		fmt.Sprintf("Total      $%s", m.summaryTotal()),
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (m appModel) errorView() string {
	message := "Failed to fetch available rooms. Please try again."
	if m.err != nil {
		message = m.err.Error()
	}
	out := errStyle.Render(message)
	if m.errRetryable {
		out += "\n\n" + hint("Press enter to retry the same search, or esc to edit your dates.")
	} else {
		out += "\n\n" + hint("Press esc to go back.")
	}
	return out
}
