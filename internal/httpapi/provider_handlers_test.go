package httpapi

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestProviderAssignAndDashboard(t *testing.T) {
	c := newTestAPI(t)
	c.register("dr@example.com", "s3cret-pass", "provider")
	patientID := c.register("pat@example.com", "s3cret-pass", "")

	dr, _ := c.login("dr@example.com", "s3cret-pass")
	pat, _ := c.login("pat@example.com", "s3cret-pass")

	assign := c.post("/v1/provider/assign", map[string]string{
		"patient_id": patientID,
	}, authHeaderFor(dr.Access))
	if assign.StatusCode != http.StatusOK {
		t.Fatalf("assign status = %d", assign.StatusCode)
	}
	assign.Body.Close()

	// The patient creates a goal and an open reminder.
	g := c.post("/v1/goals", map[string]any{"title": "lower blood pressure"}, authHeaderFor(pat.Access))
	if g.StatusCode != http.StatusCreated {
		t.Fatalf("goal create status = %d", g.StatusCode)
	}
	g.Body.Close()
	rem := c.post("/v1/reminders", map[string]any{
		"title":     "check-up",
		"remind_at": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	}, authHeaderFor(pat.Access))
	if rem.StatusCode != http.StatusCreated {
		t.Fatalf("reminder create status = %d", rem.StatusCode)
	}
	rem.Body.Close()

	dash := c.get("/v1/provider/dashboard", authHeaderFor(dr.Access))
	if dash.StatusCode != http.StatusOK {
		t.Fatalf("dashboard status = %d", dash.StatusCode)
	}
	var resp dashboardResponse
	decodeBody(t, dash, &resp)
	if len(resp.Patients) != 1 {
		t.Fatalf("dashboard patients = %d, want 1", len(resp.Patients))
	}
	p := resp.Patients[0]
	if p.ID != patientID || p.Goals != 1 || p.OpenReminders != 1 {
		t.Fatalf("unexpected summary: %+v", p)
	}
}

func TestProviderUnassignForeignPatient(t *testing.T) {
	c := newTestAPI(t)
	c.register("dr1@example.com", "s3cret-pass", "provider")
	c.register("dr2@example.com", "s3cret-pass", "provider")
	patientID := c.register("pat@example.com", "s3cret-pass", "")

	dr1, _ := c.login("dr1@example.com", "s3cret-pass")
	dr2, _ := c.login("dr2@example.com", "s3cret-pass")

	assign := c.post("/v1/provider/assign", map[string]string{
		"patient_id": patientID,
	}, authHeaderFor(dr1.Access))
	if assign.StatusCode != http.StatusOK {
		t.Fatalf("assign status = %d", assign.StatusCode)
	}
	assign.Body.Close()

	// A different provider cannot release the link.
	resp := c.post("/v1/provider/unassign", map[string]string{
		"patient_id": patientID,
	}, authHeaderFor(dr2.Access))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("foreign unassign = %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()

	own := c.post("/v1/provider/unassign", map[string]string{
		"patient_id": patientID,
	}, authHeaderFor(dr1.Access))
	if own.StatusCode != http.StatusOK {
		t.Fatalf("own unassign = %d", own.StatusCode)
	}
	own.Body.Close()
}

func TestAssignRejectsNonPatient(t *testing.T) {
	c := newTestAPI(t)
	c.register("dr1@example.com", "s3cret-pass", "provider")
	otherID := c.register("dr2@example.com", "s3cret-pass", "provider")
	dr1, _ := c.login("dr1@example.com", "s3cret-pass")

	resp := c.post("/v1/provider/assign", map[string]string{
		"patient_id": otherID,
	}, authHeaderFor(dr1.Access))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAdminRoleUpdate(t *testing.T) {
	c := newTestAPI(t)
	patientID := c.register("pat@example.com", "s3cret-pass", "")

	// Admins cannot self-register; promote one directly through the store.
	adminID := c.register("root@example.com", "s3cret-pass", "")
	if err := c.store.Users().UpdateRole(context.Background(), adminID, "admin"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	admin, _ := c.login("root@example.com", "s3cret-pass")

	resp := c.do(http.MethodPut, "/v1/users/"+patientID+"/role", map[string]string{
		"role": "provider",
	}, authHeaderFor(admin.Access))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("role update status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	user, err := c.store.Users().Find(context.Background(), patientID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if user.Role != "provider" {
		t.Fatalf("role = %q, want provider", user.Role)
	}
}
