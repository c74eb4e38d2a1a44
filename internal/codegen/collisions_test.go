package codegen

import "testing"

func TestResolveMethodNames_CollisionGetsSchemaPrefixOnEveryOccurrence(t *testing.T) {
	procs := []ProcRef{
		{Schema: "sales", Name: "GetOrder"},
		{Schema: "billing", Name: "GetOrder"},
		{Schema: "sales", Name: "GetCustomer"},
	}
	names := ResolveMethodNames(procs)

	if names[procs[0]] != "SalesGetOrder" {
		t.Fatalf("expected schema-prefixed name for sales.GetOrder, got %q", names[procs[0]])
	}
	if names[procs[1]] != "BillingGetOrder" {
		t.Fatalf("expected schema-prefixed name for billing.GetOrder, got %q", names[procs[1]])
	}
	if names[procs[2]] != "GetCustomer" {
		t.Fatalf("expected unprefixed name for the non-colliding procedure, got %q", names[procs[2]])
	}
}

func TestResolveMethodNames_NoCollisionStaysUnprefixed(t *testing.T) {
	procs := []ProcRef{
		{Schema: "sales", Name: "GetOrder"},
		{Schema: "sales", Name: "GetCustomer"},
	}
	names := ResolveMethodNames(procs)
	if names[procs[0]] != "GetOrder" || names[procs[1]] != "GetCustomer" {
		t.Fatalf("unexpected names: %+v", names)
	}
}

func TestResolveMethodNames_OrderIndependent(t *testing.T) {
	forward := []ProcRef{
		{Schema: "a", Name: "Dup"},
		{Schema: "b", Name: "Dup"},
	}
	reverse := []ProcRef{forward[1], forward[0]}

	gotForward := ResolveMethodNames(forward)
	gotReverse := ResolveMethodNames(reverse)

	for _, p := range forward {
		if gotForward[p] != gotReverse[p] {
			t.Fatalf("resolution depends on input order for %+v: %q vs %q", p, gotForward[p], gotReverse[p])
		}
	}
}
