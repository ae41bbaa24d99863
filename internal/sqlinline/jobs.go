package sqlinline

const QInsertGenerationJob = `--sql 54981443-5ac7-46a9-8e7b-9ed1a4ae8bb4
insert into generation_jobs (id, user_id, provider, provider_job_id, state, price)
values ($1, $2, $3, $4, $5, $6);
`

const QUpdateGenerationJobState = `--sql e566e2b5-6d61-47f0-a6e1-5bed72fe1966
update generation_jobs
set state = $2, provider_job_id = coalesce(nullif($3, ''), provider_job_id), error = nullif($4, ''), updated_at = now()
where id = $1;
`

// QClaimStaleJobs flips jobs abandoned by a crashed or redeployed instance
// to 'timed-out' and returns them so the sweeper can refund. The claim set is
// every state where the credit hold is still undischarged: 'credit-held'
// (crash before submit), 'submitted'/'polling' (crash mid-poll), and
// 'succeeded' (crash between provider success and persistence). The state
// guard plus the updated_at cutoff make a concurrent sweep idempotent.
const QClaimStaleJobs = `--sql bfd3ebb6-1a2e-4b85-b8ef-b5a01c508625
update generation_jobs
set state = 'timed-out', error = 'abandoned by instance', updated_at = now()
where state in ('credit-held', 'submitted', 'polling', 'succeeded') and updated_at < $1
returning id, user_id, price;
`
