package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/Shashankesi/Threadly/internal/cart"
	"github.com/Shashankesi/Threadly/internal/money"
	"github.com/Shashankesi/Threadly/internal/store"
)

type wizardTestContext struct {
	cart    *cart.Store
	wizard  *Wizard
	err     error
	message string
	receipt Receipt
}

func (c *wizardTestContext) reset() {
	c.cart = cart.NewStore(store.NewMemory(), nil)
	c.wizard = nil
	c.err = nil
	c.message = ""
	c.receipt = Receipt{}
}

func (c *wizardTestContext) aFreshStorefront() error {
	c.reset()
	return nil
}

func (c *wizardTestContext) myCartHolds(qty int, name, price string) error {
	ctx := context.Background()
	p := cart.Product{ID: strings.ToLower(strings.ReplaceAll(name, " ", "-")), Name: name, Price: price}
	if _, err := c.cart.Add(ctx, p, ""); err != nil {
		return err
	}
	return c.cart.SetQuantity(ctx, p.ID, cart.DefaultSize, qty)
}

func (c *wizardTestContext) iEnterCheckout() error {
	c.wizard, c.err = Enter(context.Background(), c.cart)
	return nil
}

func (c *wizardTestContext) checkoutIsRefused() error {
	if !errors.Is(c.err, ErrEmptyCart) {
		return fmt.Errorf("expected ErrEmptyCart, got %v", c.err)
	}
	if c.wizard != nil {
		return errors.New("a wizard was started for an empty cart")
	}
	return nil
}

func (c *wizardTestContext) enteredWithShipping() error {
	w, err := Enter(context.Background(), c.cart)
	if err != nil {
		return err
	}
	c.wizard = w
	return w.SubmitShipping(validShipping)
}

func (c *wizardTestContext) reachedReviewCOD() error {
	if err := c.enteredWithShipping(); err != nil {
		return err
	}
	return c.wizard.SubmitPayment(Payment{Method: MethodCOD})
}

func (c *wizardTestContext) iPayByCard(number, cvv string) error {
	c.err = c.wizard.SubmitPayment(Payment{
		Method:     MethodCard,
		CardNumber: number,
		CardName:   "ASHA RAO",
		Expiry:     "12/28",
		CVV:        cvv,
	})
	var verr *ValidationError
	if errors.As(c.err, &verr) {
		c.message = verr.Message
	}
	return nil
}

func (c *wizardTestContext) iApplyTheCoupon(code string) error {
	res, err := c.wizard.ApplyCoupon(code)
	if err != nil {
		return err
	}
	c.message = res.Message
	return nil
}

func (c *wizardTestContext) iPlaceTheOrder() error {
	r, err := c.wizard.PlaceOrder(context.Background())
	if err != nil {
		return err
	}
	c.receipt = r
	return nil
}

func (c *wizardTestContext) iSeeTheMessage(msg string) error {
	if c.message != msg {
		return fmt.Errorf("expected message %q, got %q", msg, c.message)
	}
	return nil
}

func (c *wizardTestContext) theWizardIsAt(state string) error {
	if got := c.wizard.State().String(); got != state {
		return fmt.Errorf("expected state %s, got %s", state, got)
	}
	return nil
}

func (c *wizardTestContext) theDiscountIs(amount string) error {
	return amountIs("discount", amount, c.wizard.Draft().Discount)
}

func (c *wizardTestContext) theFinalTotalIs(amount string) error {
	return amountIs("final total", amount, c.wizard.Draft().FinalTotal())
}

func (c *wizardTestContext) myCartIsEmpty() error {
	n, err := c.cart.TotalItemCount(context.Background())
	if err != nil {
		return err
	}
	if n != 0 {
		return fmt.Errorf("expected an empty cart, found %d items", n)
	}
	return nil
}

func (c *wizardTestContext) theOrderNumberStartsWith(prefix string) error {
	if !strings.HasPrefix(c.receipt.OrderNumber, prefix) {
		return fmt.Errorf("expected order number starting %q, got %q", prefix, c.receipt.OrderNumber)
	}
	return nil
}

func amountIs(what, want string, got money.Amount) error {
	expected, err := money.Parse(want)
	if err != nil {
		return err
	}
	if !expected.Equal(got) {
		return fmt.Errorf("expected %s %s, got %s", what, expected, got)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &wizardTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a fresh storefront$`, tc.aFreshStorefront)
	ctx.Step(`^my cart holds (\d+) of "([^"]*)" at "([^"]*)"$`, tc.myCartHolds)
	ctx.Step(`^I have entered checkout with a valid shipping address$`, tc.enteredWithShipping)
	ctx.Step(`^I have reached review paying cash on delivery$`, tc.reachedReviewCOD)

	// When steps
	ctx.Step(`^I enter checkout$`, tc.iEnterCheckout)
	ctx.Step(`^I pay by card "([^"]*)" with CVV "([^"]*)"$`, tc.iPayByCard)
	ctx.Step(`^I apply the coupon "([^"]*)"$`, tc.iApplyTheCoupon)
	ctx.Step(`^I place the order$`, tc.iPlaceTheOrder)

	// Then steps
	ctx.Step(`^checkout is refused because the cart is empty$`, tc.checkoutIsRefused)
	ctx.Step(`^I see the message "([^"]*)"$`, tc.iSeeTheMessage)
	ctx.Step(`^the wizard is at "([^"]*)"$`, tc.theWizardIsAt)
	ctx.Step(`^the discount is "([^"]*)"$`, tc.theDiscountIs)
	ctx.Step(`^the final total is "([^"]*)"$`, tc.theFinalTotalIs)
	ctx.Step(`^my cart is empty$`, tc.myCartIsEmpty)
	ctx.Step(`^the receipt order number starts with "([^"]*)"$`, tc.theOrderNumberStartsWith)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/checkout.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
