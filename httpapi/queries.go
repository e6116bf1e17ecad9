package httpapi

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/readapi"
)

const dateLayout = "2006-01-02"

func (s *Server) getReservation(w http.ResponseWriter, r *http.Request) {
	view, err := s.reads.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toReservationResponse(view.Reservation, view.ReservationNumber))
}

func (s *Server) getReservationByNumber(w http.ResponseWriter, r *http.Request) {
	view, err := s.reads.GetByNumber(chi.URLParam(r, "number"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toReservationResponse(view.Reservation, view.ReservationNumber))
}

// listReservations serves ?patientId=, ?doctorId=&status=, ?hospitalId= and ?from=&to= in any combination.
// status may be repeated or comma separated.
func (s *Server) listReservations(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	views, err := s.reads.List(query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toListResponse(views))
}

func (s *Server) upcomingReservations(w http.ResponseWriter, r *http.Request) {
	patientID := r.URL.Query().Get("patientId")
	if patientID == "" {
		s.writeError(w, r, missing("patientId"))
		return
	}

	writeJSON(w, http.StatusOK, toListResponse(s.reads.Upcoming(patientID)))
}

func (s *Server) allowedTransitions(w http.ResponseWriter, r *http.Request) {
	reservationID := chi.URLParam(r, "id")

	view, err := s.reads.GetByID(reservationID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, transitionsResponse{
		ReservationID:      reservationID,
		Status:             view.Status,
		AllowedTransitions: nonNil(view.Status.AllowedTransitions()),
	})
}

func (s *Server) doctorSchedule(w http.ResponseWriter, r *http.Request) {
	date := s.now()

	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			s.writeError(w, r, malformed("date", err))
			return
		}

		date = parsed
	}

	writeJSON(w, http.StatusOK, toListResponse(s.reads.DailySchedule(chi.URLParam(r, "doctorId"), date)))
}

func (s *Server) hospitalStats(w http.ResponseWriter, r *http.Request) {
	stats := s.reads.StatsByHospital(chi.URLParam(r, "hospitalId"))

	writeJSON(w, http.StatusOK, statsResponse{HospitalID: stats.HospitalID, Total: stats.Total, ByStatus: stats.ByStatus})
}

// availability accepts the window as window=<start>/<end> or as start= with optional end= or durationMinutes=.
func (s *Server) availability(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	doctorID := values.Get("doctorId")
	if doctorID == "" {
		s.writeError(w, r, missing("doctorId"))
		return
	}

	window, err := s.parseWindow(values)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	availability, err := s.reads.CheckAvailability(doctorID, window)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAvailabilityResponse(availability))
}

func (s *Server) parseWindow(values url.Values) (core.Window, error) {
	if raw := values.Get("window"); raw != "" {
		startRaw, endRaw, ok := strings.Cut(raw, "/")
		if !ok {
			return core.Window{}, malformed("window", errors.New("expected <start>/<end>"))
		}

		start, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			return core.Window{}, malformed("window", err)
		}

		end, err := time.Parse(time.RFC3339, endRaw)
		if err != nil {
			return core.Window{}, malformed("window", err)
		}

		return invalidIfErr(core.BuildWindowFromBounds(start, end))
	}

	startRaw := values.Get("start")
	if startRaw == "" {
		return core.Window{}, missing("window")
	}

	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return core.Window{}, malformed("start", err)
	}

	request := windowRequest{Start: start}

	if endRaw := values.Get("end"); endRaw != "" {
		end, parseErr := time.Parse(time.RFC3339, endRaw)
		if parseErr != nil {
			return core.Window{}, malformed("end", parseErr)
		}

		request.End = &end
	}

	if minutesRaw := values.Get("durationMinutes"); minutesRaw != "" {
		minutes, parseErr := strconv.Atoi(minutesRaw)
		if parseErr != nil {
			return core.Window{}, malformed("durationMinutes", parseErr)
		}

		request.DurationMinutes = minutes
	}

	return invalidIfErr(request.toWindow(s.defaultDuration))
}

func parseListQuery(values url.Values) (readapi.ListQuery, error) {
	query := readapi.ListQuery{
		PatientID:  values.Get("patientId"),
		DoctorID:   values.Get("doctorId"),
		HospitalID: values.Get("hospitalId"),
	}

	var names []string
	for _, raw := range values["status"] {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}

	statuses, err := readapi.ParseStatuses(names)
	if err != nil {
		return readapi.ListQuery{}, err
	}
	query.Statuses = statuses

	if query.From, err = parseTimeParam(values, "from"); err != nil {
		return readapi.ListQuery{}, err
	}

	if query.To, err = parseTimeParam(values, "to"); err != nil {
		return readapi.ListQuery{}, err
	}

	if raw := values.Get("limit"); raw != "" {
		if query.Limit, err = strconv.Atoi(raw); err != nil {
			return readapi.ListQuery{}, malformed("limit", err)
		}
	}

	return query, nil
}

// parseTimeParam accepts RFC 3339 timestamps and plain dates, which mean midnight UTC.
func parseTimeParam(values url.Values, name string) (time.Time, error) {
	raw := values.Get(name)
	if raw == "" {
		return time.Time{}, nil
	}

	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}

	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, malformed(name, err)
	}

	return parsed, nil
}

func invalidIfErr(window core.Window, err error) (core.Window, error) {
	if err != nil {
		return core.Window{}, core.InvalidCommand(err)
	}

	return window, nil
}

func missing(name string) error {
	return errors.Join(ErrMissingQueryParam, errors.New(name))
}

func malformed(name string, cause error) error {
	return errors.Join(ErrMalformedQueryParam, errors.New(name), cause)
}

func nonNil(statuses []core.Status) []core.Status {
	if statuses == nil {
		return []core.Status{}
	}

	return statuses
}
