package queue

import "encoding/json"

// CampaignRunJob asks a subscriber to run a campaign. Resume continues a
// campaign the pause/resume action already moved back to running.
type CampaignRunJob struct {
	CampaignID string `json:"campaign_id"`
	Resume     bool   `json:"resume,omitempty"`
}

func PublishCampaignRun(q Queue, job CampaignRunJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.Publish(TopicCampaignRuns, body)
}
