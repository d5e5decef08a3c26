package integration_test

import (
	"net/http"
	"testing"
)

type contactBody struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Pinned bool   `json:"is_pinned"`
}

func runContactScenario(t *testing.T, s stores) {
	r := newRouter(t, s, nil)

	send := func(name string) contactBody {
		t.Helper()
		w := doRequest(r, http.MethodPost, "/contact",
			`{"name":"`+name+`","email":"`+name+`@example.com","message":"we stand with you"}`, "")
		mustStatus(t, w, http.StatusCreated)

		var resp struct {
			Data contactBody `json:"data"`
		}
		mustReadJSON(t, w, &resp)
		if resp.Data.Status != "pending" || resp.Data.Pinned {
			t.Fatalf("new message state %+v", resp.Data)
		}
		return resp.Data
	}

	older := send("older")
	newer := send("newer")

	// anonymous callers cannot read the inbox
	w := doRequest(r, http.MethodGet, "/admin/contact-messages", "", "")
	mustStatus(t, w, http.StatusUnauthorized)

	token := login(t, r, "/admin/login", adminEmail, adminPassword)

	w = doRequest(r, http.MethodPut, "/admin/contact-messages/"+older.ID, `{"is_pinned":true}`, token)
	mustStatus(t, w, http.StatusOK)

	w = doRequest(r, http.MethodPut, "/admin/contact-messages/"+newer.ID+"/approve", "", token)
	mustStatus(t, w, http.StatusOK)

	w = doRequest(r, http.MethodGet, "/admin/contact-messages", "", token)
	mustStatus(t, w, http.StatusOK)

	var list struct {
		Data []contactBody `json:"data"`
	}
	mustReadJSON(t, w, &list)
	if len(list.Data) != 2 || list.Data[0].ID != older.ID {
		t.Fatalf("pinned message should come first: %+v", list.Data)
	}

	w = doRequest(r, http.MethodGet, "/admin/contact-messages?status=approved", "", token)
	mustStatus(t, w, http.StatusOK)
	mustReadJSON(t, w, &list)
	if len(list.Data) != 1 || list.Data[0].ID != newer.ID {
		t.Fatalf("approved filter got %+v", list.Data)
	}

	w = doRequest(r, http.MethodDelete, "/admin/contact-messages/"+older.ID, "", token)
	mustStatus(t, w, http.StatusNoContent)

	w = doRequest(r, http.MethodGet, "/admin/contact-messages/"+older.ID, "", token)
	mustStatus(t, w, http.StatusNotFound)
}

func TestContactScenario_Memory(t *testing.T) {
	runContactScenario(t, memoryStores())
}

func TestContactScenario_Postgres(t *testing.T) {
	runContactScenario(t, postgresStores(t, nil))
}
