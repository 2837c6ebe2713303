// Package canopy exposes the offline parts of the workflow log analyzer:
// stream name parsing, error line extraction and classification, run
// statistics, and DAG id discovery in Python sources.
//
// Quick start:
//
//	c, err := canopy.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	errs := c.ExtractErrors([]canopy.Event{{
//	    Stream:  "dag_id=etl/task_id=load/run_id=r1/attempt=1.log",
//	    Message: "ERROR - ModuleNotFoundError: No module named 'pandas'",
//	}})
//	fmt.Println(errs[0].Workflow, errs[0].Category) // etl IMPORT_ERROR
//
// A Canopy is safe for concurrent use. Scoring and report generation are
// available through the canopy command.
package canopy
