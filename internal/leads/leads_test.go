package leads_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brightholme/internal/leads"
	"brightholme/internal/testsupport"
	"brightholme/internal/timeframe"
)

func TestCreateLead(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("creates contact lead", func(t *testing.T) {
		testsupport.CleanAllTables(db)

		lead, err := leads.CreateLead(dbManager, logger, leads.CreateLeadInput{
			LeadType: leads.TypeContact,
			FullName: "Jordan Smith",
			Email:    "jordan@example.com",
			Phone:    "+44 7700 900999",
			Message:  "Asking about entry requirements.",
			Source:   "/contact",
		})
		require.NoError(t, err)

		assert.NotZero(t, lead.ID)
		assert.Equal(t, leads.StatusNew, lead.Status)
		assert.False(t, lead.CreatedAt.IsZero())
	})

	t.Run("contact lead requires name and email", func(t *testing.T) {
		_, err := leads.CreateLead(dbManager, logger, leads.CreateLeadInput{
			LeadType: leads.TypeContact,
			Email:    "no-name@example.com",
		})
		assert.Error(t, err)
	})

	t.Run("subscription lead requires only email", func(t *testing.T) {
		lead, err := leads.CreateLead(dbManager, logger, leads.CreateLeadInput{
			LeadType: leads.TypeSubscription,
			Email:    "subscriber@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, leads.TypeSubscription, lead.LeadType)
	})

	t.Run("rejects unknown lead type", func(t *testing.T) {
		_, err := leads.CreateLead(dbManager, logger, leads.CreateLeadInput{
			LeadType: "walk-in",
			Email:    "someone@example.com",
		})
		assert.Error(t, err)
	})
}

func TestUpdateLeadStatus(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CleanAllTables(db)

	lead, err := leads.CreateLead(dbManager, logger, leads.CreateLeadInput{
		LeadType: leads.TypeSubscription,
		Email:    "pipeline@example.com",
	})
	require.NoError(t, err)

	require.NoError(t, leads.UpdateLeadStatus(dbManager, logger, lead.ID, leads.StatusContacted))

	var stored leads.Lead
	require.NoError(t, db.First(&stored, lead.ID).Error)
	assert.Equal(t, leads.StatusContacted, stored.Status)

	assert.Error(t, leads.UpdateLeadStatus(dbManager, logger, lead.ID, "Lost"), "unknown status rejected")
	assert.Error(t, leads.UpdateLeadStatus(dbManager, logger, 99999, leads.StatusClosed), "missing lead rejected")
}

func TestCountLeadsInTimeFrame(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CleanAllTables(db)

	_, err := leads.CreateLead(dbManager, logger, leads.CreateLeadInput{
		LeadType: leads.TypeSubscription,
		Email:    "recent@example.com",
	})
	require.NoError(t, err)

	// An older lead outside the window.
	old := leads.Lead{
		LeadType:  leads.TypeContact,
		FullName:  "Old Lead",
		Email:     "old@example.com",
		Status:    leads.StatusNew,
		CreatedAt: time.Now().UTC().AddDate(0, 0, -20),
		UpdatedAt: time.Now().UTC().AddDate(0, 0, -20),
	}
	require.NoError(t, db.Create(&old).Error)

	// Window end just past the creation instant; TrailingWindow truncates
	// to the second and the interval is half-open.
	count, err := leads.CountLeadsInTimeFrame(db, timeframe.TrailingWindow(time.Now().UTC().Add(time.Second), 7))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestListRecentLeads(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CleanAllTables(db)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := leads.CreateLead(dbManager, logger, leads.CreateLeadInput{
			LeadType: leads.TypeSubscription,
			Email:    email,
		})
		require.NoError(t, err)
	}

	recent, err := leads.ListRecentLeads(db, 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}
