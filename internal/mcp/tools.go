package mcp

func (s *Server) listTools() interface{} {
	projectKeyProp := map[string]interface{}{
		"type":        "string",
		"description": "JIRA project key, e.g. PRJ",
	}
	weeksProp := map[string]interface{}{
		"type":        "integer",
		"description": "History window in weeks (default 16)",
	}

	return map[string]interface{}{
		"tools": []interface{}{
			map[string]interface{}{
				"name":        "get_project_health",
				"description": "Compute the composite project health score (delivery, predictability, quality, efficiency, sustainability, financial) from recent JIRA activity.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"project_key": projectKeyProp,
						"weeks":       weeksProp,
					},
					"required": []string{"project_key"},
				},
			},
			map[string]interface{}{
				"name":        "forecast_bug_resolution",
				"description": "Estimate optimistic/likely/pessimistic weeks until the open bug backlog clears, based on historical weekly closure rates.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"project_key": projectKeyProp,
						"weeks":       weeksProp,
					},
					"required": []string{"project_key"},
				},
			},
			map[string]interface{}{
				"name":        "get_quality_insights",
				"description": "Generate prioritized bug-quality insights (resolution rate, inflow/outflow trends) for a project.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"project_key": projectKeyProp,
						"weeks":       weeksProp,
					},
					"required": []string{"project_key"},
				},
			},
			map[string]interface{}{
				"name":        "get_weekly_metrics",
				"description": "Return the weekly created/resolved/bug/points time series for a project, zero-filled over contiguous ISO weeks.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"project_key": projectKeyProp,
						"weeks":       weeksProp,
						"include_partial_current": map[string]interface{}{
							"type":        "boolean",
							"description": "Include the still-running current week (default false)",
						},
					},
					"required": []string{"project_key"},
				},
			},
			map[string]interface{}{
				"name":        "get_metric_history",
				"description": "Read previously snapshotted values of one metric field across recent weeks.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"metric":    map[string]interface{}{"type": "string"},
						"value_key": map[string]interface{}{"type": "string"},
						"weeks":     weeksProp,
					},
					"required": []string{"metric", "value_key"},
				},
			},
			map[string]interface{}{
				"name":        "cleanup_snapshots",
				"description": "Delete snapshot weeks older than the retention window.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"weeks_to_keep": map[string]interface{}{
							"type":        "integer",
							"description": "Number of most recent weeks to retain (default 52)",
						},
					},
				},
			},
		},
	}
}
