package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/cancelreservation"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/completereservation"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/confirmreservation"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/createreservation"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/marknoshow"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/refundreservation"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/requestrefund"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/reschedulereservation"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/shell"
)

func (s *Server) createReservation(w http.ResponseWriter, r *http.Request) {
	var request createRequest
	if err := decodeBody(w, r, &request); err != nil {
		s.writeError(w, r, err)
		return
	}

	window, err := request.Window.toWindow(s.defaultDuration)
	if err != nil {
		s.writeError(w, r, core.InvalidCommand(err))
		return
	}

	reservationID := request.ReservationID
	if reservationID == "" {
		reservationID = s.newID()
	}

	command, err := createreservation.BuildCommand(
		reservationID,
		request.PatientID,
		request.DoctorID,
		request.HospitalID,
		window,
		core.Resources(request.Resources),
		request.Notes,
		s.now(),
	)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.commands.Create.Handle(r.Context(), command)
	s.respond(w, r, result, err, http.StatusCreated)
}

func (s *Server) confirmReservation(w http.ResponseWriter, r *http.Request) {
	var request transitionRequest
	if err := decodeBody(w, r, &request); err != nil {
		s.writeError(w, r, err)
		return
	}

	actor, _ := shell.ActorFrom(r.Context())

	command, err := confirmreservation.BuildCommand(chi.URLParam(r, "id"), request.ExpectedVersion, actor, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.commands.Confirm.Handle(r.Context(), command)
	s.respond(w, r, result, err, http.StatusOK)
}

func (s *Server) cancelReservation(w http.ResponseWriter, r *http.Request) {
	var request transitionRequest
	if err := decodeBody(w, r, &request); err != nil {
		s.writeError(w, r, err)
		return
	}

	command, err := cancelreservation.BuildCommand(chi.URLParam(r, "id"), request.ExpectedVersion, request.Reason, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.commands.Cancel.Handle(r.Context(), command)
	s.respond(w, r, result, err, http.StatusOK)
}

func (s *Server) rescheduleReservation(w http.ResponseWriter, r *http.Request) {
	var request rescheduleRequest
	if err := decodeBody(w, r, &request); err != nil {
		s.writeError(w, r, err)
		return
	}

	window, err := request.Window.toWindow(s.defaultDuration)
	if err != nil {
		s.writeError(w, r, core.InvalidCommand(err))
		return
	}

	command, err := reschedulereservation.BuildCommand(chi.URLParam(r, "id"), request.ExpectedVersion, window, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.commands.Reschedule.Handle(r.Context(), command)
	s.respond(w, r, result, err, http.StatusOK)
}

func (s *Server) completeReservation(w http.ResponseWriter, r *http.Request) {
	var request transitionRequest
	if err := decodeBody(w, r, &request); err != nil {
		s.writeError(w, r, err)
		return
	}

	command, err := completereservation.BuildCommand(chi.URLParam(r, "id"), request.ExpectedVersion, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.commands.Complete.Handle(r.Context(), command)
	s.respond(w, r, result, err, http.StatusOK)
}

func (s *Server) markNoShow(w http.ResponseWriter, r *http.Request) {
	var request transitionRequest
	if err := decodeBody(w, r, &request); err != nil {
		s.writeError(w, r, err)
		return
	}

	command, err := marknoshow.BuildCommand(chi.URLParam(r, "id"), request.ExpectedVersion, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.commands.NoShow.Handle(r.Context(), command)
	s.respond(w, r, result, err, http.StatusOK)
}

func (s *Server) requestRefund(w http.ResponseWriter, r *http.Request) {
	var request transitionRequest
	if err := decodeBody(w, r, &request); err != nil {
		s.writeError(w, r, err)
		return
	}

	command, err := requestrefund.BuildCommand(chi.URLParam(r, "id"), request.ExpectedVersion, request.Reason, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.commands.Request.Handle(r.Context(), command)
	s.respond(w, r, result, err, http.StatusOK)
}

func (s *Server) refundReservation(w http.ResponseWriter, r *http.Request) {
	var request refundRequest
	if err := decodeBody(w, r, &request); err != nil {
		s.writeError(w, r, err)
		return
	}

	var amount core.Money
	if request.Amount != nil {
		amount = core.Money{AmountMinor: request.Amount.AmountMinor, Currency: request.Amount.Currency}
	}

	command, err := refundreservation.BuildCommand(chi.URLParam(r, "id"), request.ExpectedVersion, amount, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.commands.Refund.Handle(r.Context(), command)
	s.respond(w, r, result, err, http.StatusOK)
}

// respond writes the post-append state of a handled command.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, result shell.HandlerResult, err error, status int) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, status, toReservationResponse(result.Reservation, s.numberOf(r, result.Reservation.ReservationID)))
}

// numberOf looks up the reservation number, catching the projection up once if it does not know the
// reservation yet. The number is omitted rather than failing a command that was already appended.
func (s *Server) numberOf(r *http.Request, reservationID core.ReservationIDString) string {
	if view, err := s.reads.GetByID(reservationID); err == nil {
		return view.ReservationNumber
	}

	if s.freshness == nil {
		return ""
	}

	if err := s.freshness.CatchUp(r.Context()); err != nil {
		s.logger.WarnContext(r.Context(), logMsgCatchUpFailed, logAttrReservationID, reservationID, logAttrError, err.Error())
		return ""
	}

	view, err := s.reads.GetByID(reservationID)
	if err != nil {
		return ""
	}

	return view.ReservationNumber
}
