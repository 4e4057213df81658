// Package limits gates resource creation on the company's subscription plan.
//
// A Guard turns the boolean capability checks of the subscription service
// into a control-flow gate that fails with a *PlanLimitError. The creation
// helpers run the whole sequence
//
//	lock(company) -> enforce -> create -> increment usage -> unlock
//
// so that two concurrent requests of one company cannot both pass the check
// at the limit boundary. Usage increments after a successful create are
// best-effort: a failure is logged and never undoes the created entity.
package limits
