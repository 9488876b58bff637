package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simaogato/billlink-backend/internal/domain"
	"github.com/simaogato/billlink-backend/internal/usecase/fetcher"
	"github.com/simaogato/billlink-backend/internal/usecase/wizard"
)

// load validates the route identifier and loads the bill for one page render.
// The page is unmounted when the handler returns, so late results are dropped.
func (s *Server) load(c *gin.Context, loader *fetcher.Loader, detectInApp bool) (*domain.Bill, bool) {
	id := billID(c)

	if err := domain.ValidateIdentifier(id); err != nil {
		s.renderNotFound(c, fetcher.Result{ID: id, State: fetcher.StateInvalid, Err: err})
		return nil, false
	}

	inApp := detectInApp && fetcher.DetectInAppBrowser(c.Request.Referer(), c.Request.URL.Query())

	p := fetcher.NewPage()
	defer p.Unmount()

	res := loader.Load(c.Request.Context(), p, id, inApp)
	if !res.OK() {
		s.renderNotFound(c, res)
		return nil, false
	}
	return res.Bill, true
}

func (s *Server) handleBill(c *gin.Context) {
	bill, ok := s.load(c, s.primary, true)
	if !ok {
		return
	}

	view := s.wizard.View(c.Request.Context(), scope(c), bill)

	c.HTML(http.StatusOK, "bill.html", page(gin.H{
		"Bill": view.Bill,
		"Step": view.Step,
	}))
}

// handleNext moves Viewing -> SelectingMethod
func (s *Server) handleNext(c *gin.Context) {
	id := billID(c)
	if err := domain.ValidateIdentifier(id); err != nil {
		s.renderNotFound(c, fetcher.Result{ID: id, State: fetcher.StateInvalid, Err: err})
		return
	}
	c.Redirect(http.StatusSeeOther, "/customer/"+id+"/payment-method")
}

func (s *Server) handlePaymentMethod(c *gin.Context) {
	bill, ok := s.load(c, s.step, false)
	if !ok {
		return
	}

	form := s.wizard.ChooseMethod(c.Request.Context(), scope(c), bill)

	c.HTML(http.StatusOK, "payment_method.html", page(gin.H{
		"Bill": bill,
		"Form": form,
	}))
}

// handleSubmitPaymentMethod moves SelectingMethod -> DisplayingCode when the
// selection is complete, and re-renders the form otherwise
func (s *Server) handleSubmitPaymentMethod(c *gin.Context) {
	id := billID(c)
	if err := domain.ValidateIdentifier(id); err != nil {
		s.renderNotFound(c, fetcher.Result{ID: id, State: fetcher.StateInvalid, Err: err})
		return
	}

	amount := c.PostForm("amount")
	bank := c.PostForm("bank")

	err := s.wizard.SubmitMethod(c.Request.Context(), scope(c), amount, bank)
	if err == nil {
		c.Redirect(http.StatusSeeOther, "/customer/"+id+"/qr-payment")
		return
	}

	var verr *wizard.ValidationError
	if !errors.As(err, &verr) {
		_ = c.Error(err)
		c.Status(http.StatusInternalServerError)
		return
	}

	bill, ok := s.load(c, s.step, false)
	if !ok {
		return
	}

	form := s.wizard.ChooseMethod(c.Request.Context(), scope(c), bill)
	form.Amount = amount
	form.SelectedBank = bank
	form.Error = verr

	c.HTML(http.StatusUnprocessableEntity, "payment_method.html", page(gin.H{
		"Bill": bill,
		"Form": form,
	}))
}

func (s *Server) handleQRPayment(c *gin.Context) {
	bill, ok := s.load(c, s.step, false)
	if !ok {
		return
	}

	code := s.wizard.PaymentCode(c.Request.Context(), scope(c), bill)

	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "qr_payment.html", page(gin.H{
		"Bill": bill,
		"Code": code,
	}))
}
